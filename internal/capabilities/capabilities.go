// Package capabilities parses ffmpeg's self-description listings into a
// lookup table.
//
// Probe is the only code that runs ffmpeg; validation receives the resulting
// Table and treats it as a plain name lookup.
package capabilities

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Table lists what an installed ffmpeg supports.
type Table struct {
	Encoders map[string]struct{}
	Muxers   map[string]struct{}
	Filters  map[string]struct{}
	HWAccels map[string]struct{}
}

// HasEncoder reports whether the encoder is available. "copy" and "none"
// are always available.
func (t *Table) HasEncoder(name string) bool {
	key := normalize(name)
	if key == "copy" || key == "none" {
		return true
	}
	return t.has(t.Encoders, key)
}

func (t *Table) HasMuxer(name string) bool   { return t.has(t.Muxers, normalize(name)) }
func (t *Table) HasFilter(name string) bool  { return t.has(t.Filters, normalize(name)) }
func (t *Table) HasHWAccel(name string) bool { return t.has(t.HWAccels, normalize(name)) }

func (t *Table) has(m map[string]struct{}, key string) bool {
	if t == nil {
		return false
	}
	_, ok := m[key]
	return ok
}

// Sorted returns the entries of one listing in sorted order.
func Sorted(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Runner executes a binary and returns its stdout.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// ExecRunner runs the binary with os/exec.
func ExecRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return out, nil
}

// Probe queries binary for its encoders, muxers, filters and hwaccels.
func Probe(ctx context.Context, binary string, run Runner) (*Table, error) {
	if run == nil {
		run = ExecRunner
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	table := &Table{}
	listings := []struct {
		flag  string
		parse func(string) map[string]struct{}
		dst   *map[string]struct{}
	}{
		{"-encoders", ParseEncoders, &table.Encoders},
		{"-muxers", ParseMuxers, &table.Muxers},
		{"-filters", ParseFilters, &table.Filters},
		{"-hwaccels", ParseHWAccels, &table.HWAccels},
	}

	for _, l := range listings {
		out, err := run(ctx, binary, "-hide_banner", l.flag)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", l.flag, err)
		}
		*l.dst = l.parse(string(out))
	}
	return table, nil
}

// ParseEncoders reads `ffmpeg -encoders` output. Entries follow a "------"
// separator as "<flags> <name> <description>".
func ParseEncoders(output string) map[string]struct{} {
	return parseAfterSeparator(output, "------", 2)
}

// ParseMuxers reads `ffmpeg -muxers` output. Entries follow a "--"
// separator as "<flags> <name[,alias]> <description>".
func ParseMuxers(output string) map[string]struct{} {
	return parseAfterSeparator(output, "--", 2)
}

// ParseFilters reads `ffmpeg -filters` output. Entries carry an
// "<in>-><out>" column as their third field.
func ParseFilters(output string) map[string]struct{} {
	result := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		result[normalize(fields[1])] = struct{}{}
	}
	return result
}

// ParseHWAccels reads `ffmpeg -hwaccels` output: a header line followed by
// one method per line.
func ParseHWAccels(output string) map[string]struct{} {
	result := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasSuffix(line, ":") || strings.Contains(line, " ") {
			continue
		}
		result[normalize(line)] = struct{}{}
	}
	return result
}

func parseAfterSeparator(output, separator string, minFields int) map[string]struct{} {
	result := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(output))
	started := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !started {
			if line == separator {
				started = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < minFields {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			if name = normalize(name); name != "" {
				result[name] = struct{}{}
			}
		}
	}
	return result
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
