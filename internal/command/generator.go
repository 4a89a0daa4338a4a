// Package command renders a builder.State into an ffmpeg argument vector.
//
// Generation never fails: fields that are missing are skipped so an
// incomplete state can still be previewed. Token order follows ffmpeg's
// positional grammar: global and hardware options, then per-input options
// ahead of each -i, then mappings, codecs, filter chains, muxer options, and
// finally the output path.
package command

import (
	"sort"
	"strconv"
	"strings"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
	"ffcraft/internal/language"
)

// Generator renders states for one ffmpeg binary.
type Generator struct {
	binary   string
	registry *hwaccel.Registry
}

// NewGenerator returns a generator. An empty binary defaults to "ffmpeg" and
// a nil registry renders every state as software.
func NewGenerator(binary string, registry *hwaccel.Registry) *Generator {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if registry == nil {
		registry = hwaccel.NewRegistry()
	}
	return &Generator{binary: binary, registry: registry}
}

// Generate renders the command. The first token is the binary and the last
// is the output path.
func (g *Generator) Generate(state builder.State) []string {
	hw := g.family(state.GlobalOptions.HWAccel.Family)

	args := []string{g.binary}
	args = appendGlobal(args, state.GlobalOptions)
	args = appendHardware(args, hw, state.GlobalOptions.HWAccel)
	for _, in := range state.Inputs {
		args = appendInput(args, in)
	}
	args = appendMappings(args, state.StreamMappings)
	args = g.appendVideoCodec(args, state.VideoCodec)
	args = appendAudioCodec(args, state.AudioCodec)
	if chain := videoChain(state, hw); len(chain) > 0 {
		args = append(args, "-vf", strings.Join(chain, ","))
	}
	if chain := audioChain(state); len(chain) > 0 {
		args = append(args, "-af", strings.Join(chain, ","))
	}
	args = appendOutput(args, state.Output)
	return args
}

func (g *Generator) family(name string) hwaccel.Family {
	if f, ok := g.registry.Lookup(name); ok {
		return f
	}
	return hwaccel.Family{Name: hwaccel.Software}
}

func appendGlobal(args []string, opts builder.GlobalOptions) []string {
	if opts.HideBanner {
		args = append(args, "-hide_banner")
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "-loglevel", strings.ToLower(level))
	}
	if opts.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}
	if opts.NoStdin {
		args = append(args, "-nostdin")
	}
	if opts.StatsPeriod > 0 {
		args = append(args, "-stats_period", formatNumber(opts.StatsPeriod))
	}
	return args
}

func appendHardware(args []string, hw hwaccel.Family, opts builder.HWAccel) []string {
	args = append(args, hw.DeviceArgs(opts.Device)...)
	if opts.Decode {
		args = append(args, hw.DecodeArgs(opts.Device)...)
	}
	return args
}

func appendInput(args []string, in builder.Input) []string {
	if v := strings.TrimSpace(in.SeekStart); v != "" {
		args = append(args, "-ss", v)
	}
	if v := strings.TrimSpace(in.Duration); v != "" {
		args = append(args, "-t", v)
	}
	if in.StreamLoop != 0 {
		args = append(args, "-stream_loop", strconv.Itoa(in.StreamLoop))
	}
	if v := strings.TrimSpace(in.Format); v != "" {
		args = append(args, "-f", v)
	}
	path := strings.TrimSpace(in.Path)
	if path == "" && in.Kind == builder.InputPipe {
		path = "pipe:0"
	}
	return append(args, "-i", path)
}

func appendMappings(args []string, mappings []builder.StreamMapping) []string {
	for _, m := range mappings {
		spec := m.StreamType.Specifier()
		selector := strconv.Itoa(m.InputIndex) + ":" + spec + ":" + strconv.Itoa(m.StreamIndex)
		if m.Exclude {
			args = append(args, "-map", "-"+selector)
			continue
		}
		args = append(args, "-map", selector)
		target := "-metadata:s:" + spec + ":" + strconv.Itoa(m.OutputIndex)
		if lang := language.MetadataCode(m.Language); lang != "" {
			args = append(args, target, "language="+lang)
		}
		if title := strings.TrimSpace(m.Title); title != "" {
			args = append(args, target, "title="+title)
		}
	}
	return args
}

func (g *Generator) appendVideoCodec(args []string, vc builder.VideoCodec) []string {
	codec := builder.Canonical(vc.Codec)
	switch {
	case codec == "":
		return args
	case builder.IsDisabled(codec):
		return append(args, "-vn")
	case builder.IsCopy(codec):
		return append(args, "-c:v", builder.CodecCopy)
	}

	args = append(args, "-c:v", codec)
	if vc.CRF != nil {
		owner, ok := g.registry.FamilyForCodec(codec)
		flag := "-crf"
		if ok {
			flag = owner.Quality()
		}
		args = append(args, flag, strconv.Itoa(*vc.CRF))
	} else if v := strings.TrimSpace(vc.Bitrate); v != "" {
		args = append(args, "-b:v", v)
	}
	args = appendIf(args, "-maxrate", vc.MaxRate)
	args = appendIf(args, "-bufsize", vc.BufSize)
	args = appendIf(args, "-preset", vc.Preset)
	args = appendIf(args, "-tune", vc.Tune)
	args = appendIf(args, "-profile:v", vc.Profile)
	args = appendIf(args, "-level", vc.Level)
	args = appendIf(args, "-pix_fmt", vc.PixelFormat)
	if vc.GOPSize > 0 {
		args = append(args, "-g", strconv.Itoa(vc.GOPSize))
	}
	args = appendIf(args, "-r", vc.FrameRate)

	keys := make([]string, 0, len(vc.Options))
	for k := range vc.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		flag := strings.TrimSpace(k)
		if flag == "" {
			continue
		}
		if !strings.HasPrefix(flag, "-") {
			flag = "-" + flag
		}
		args = append(args, flag, vc.Options[k])
	}
	return args
}

func appendAudioCodec(args []string, ac builder.AudioCodec) []string {
	codec := builder.Canonical(ac.Codec)
	switch {
	case codec == "":
		return args
	case builder.IsDisabled(codec):
		return append(args, "-an")
	case builder.IsCopy(codec):
		return append(args, "-c:a", builder.CodecCopy)
	}

	args = append(args, "-c:a", codec)
	if !builder.IsLosslessAudioCodec(codec) {
		args = appendIf(args, "-b:a", ac.Bitrate)
	}
	if ac.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(ac.SampleRate))
	}
	if ac.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(ac.Channels))
	}
	args = appendIf(args, "-ch_layout", builder.Canonical(ac.ChannelLayout))
	args = appendIf(args, "-profile:a", ac.Profile)
	return args
}

func appendOutput(args []string, out builder.Output) []string {
	args = appendIf(args, "-f", strings.ToLower(out.Format))
	switch out.ResolvedFormat() {
	case "mp4", "mov":
		if out.FastStart {
			args = append(args, "-movflags", "+faststart")
		}
	case "hls":
		if out.SegmentDuration > 0 {
			args = append(args, "-hls_time", formatNumber(out.SegmentDuration))
		}
		args = appendIf(args, "-hls_playlist_type", strings.ToLower(out.PlaylistType))
		args = appendIf(args, "-hls_segment_filename", out.SegmentFilename)
	case "dash":
		if out.SegmentDuration > 0 {
			args = append(args, "-seg_duration", formatNumber(out.SegmentDuration))
		}
	}
	return append(args, strings.TrimSpace(out.Path))
}

func appendIf(args []string, flag, value string) []string {
	if v := strings.TrimSpace(value); v != "" {
		return append(args, flag, v)
	}
	return args
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
