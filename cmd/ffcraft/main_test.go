package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ffcraft/internal/config"
	"ffcraft/internal/testsupport"
)

type cliEnv struct {
	dir        string
	configPath string
	cfg        *config.Config
}

func newCLIEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FFCRAFT_FFMPEG", "")
	cfg := testsupport.NewConfig(t, opts...)
	dir := testsupport.BaseDir(cfg)
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "ffcraft.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{dir: dir, configPath: path, cfg: cfg}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) writeState(t *testing.T, name string, crf int) string {
	t.Helper()
	state := `{
  "inputs": [{"kind": "file", "path": "` + filepath.Join(e.dir, "in.mkv") + `"}],
  "output": {"path": "` + filepath.Join(e.dir, name+".mp4") + `", "format": "mp4", "fast_start": true},
  "video_codec": {"codec": "libx264", "crf": ` + strconv.Itoa(crf) + `, "preset": "medium"},
  "audio_codec": {"codec": "aac", "bitrate": "128k", "channels": 2},
  "video_filters": [],
  "audio_filters": [],
  "stream_mappings": [],
  "global_options": {"overwrite": true, "hide_banner": true}
}`
	path := filepath.Join(e.dir, name+".json")
	if err := os.WriteFile(path, []byte(state), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	env := newCLIEnv(t)
	statePath := env.writeState(t, "movie", 23)

	out, err := env.run(t, "render", statePath)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, out)
	}
	for _, want := range []string{"ffmpeg -hide_banner -y", "-c:v libx264 -crf 23 -preset medium", "-c:a aac -b:a 128k -ac 2", "-movflags +faststart"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join(env.dir, "movie.mp4")) {
		t.Fatalf("output path should be last:\n%s", out)
	}
}

func TestRenderJSON(t *testing.T) {
	env := newCLIEnv(t)
	statePath := env.writeState(t, "movie", 23)

	out, err := env.run(t, "render", "--json", statePath)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, `"name": "movie"`) || !strings.Contains(out, `"libx264"`) {
		t.Fatalf("unexpected JSON output:\n%s", out)
	}
}

func TestValidateCommand(t *testing.T) {
	env := newCLIEnv(t)

	good := env.writeState(t, "good", 23)
	out, err := env.run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good state failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "good: valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	bad := env.writeState(t, "bad", 60)
	out, err = env.run(t, "validate", bad)
	if err == nil {
		t.Fatalf("expected validation failure:\n%s", out)
	}
	if !strings.Contains(out, "must be between 0 and 51") || !strings.Contains(out, "bad: invalid") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPresetLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	statePath := env.writeState(t, "web", 22)

	out, err := env.run(t, "preset", "save", "Web 720p", statePath, "--description", "h264 for the web")
	if err != nil {
		t.Fatalf("save failed: %v\n%s", err, out)
	}
	id := regexp.MustCompile(`\(([0-9a-f-]{36})\)`).FindStringSubmatch(out)
	if id == nil {
		t.Fatalf("no preset id in output:\n%s", out)
	}

	out, err = env.run(t, "preset", "list")
	if err != nil || !strings.Contains(out, "Web 720p") || !strings.Contains(out, "libx264") {
		t.Fatalf("list failed: %v\n%s", err, out)
	}

	out, err = env.run(t, "preset", "search", "WEB")
	if err != nil || !strings.Contains(out, id[1]) {
		t.Fatalf("search failed: %v\n%s", err, out)
	}

	exportPath := filepath.Join(env.dir, "export.json")
	if out, err := env.run(t, "preset", "export", id[1], "--output", exportPath); err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	out, err = env.run(t, "preset", "import", exportPath)
	if err != nil || !strings.Contains(out, "Imported preset Web 720p") {
		t.Fatalf("import failed: %v\n%s", err, out)
	}

	out, err = env.run(t, "render", "--preset", id[1])
	if err != nil || !strings.Contains(out, "-crf 22") {
		t.Fatalf("render preset failed: %v\n%s", err, out)
	}
	out, err = env.run(t, "render", exportPath)
	if err != nil || !strings.Contains(out, "-crf 22") {
		t.Fatalf("render exported document failed: %v\n%s", err, out)
	}

	if out, err := env.run(t, "preset", "delete", id[1]); err != nil {
		t.Fatalf("delete failed: %v\n%s", err, out)
	}
	if _, err := env.run(t, "preset", "show", id[1]); err == nil {
		t.Fatal("expected show of deleted preset to fail")
	}
}

func TestRunCommandCompletesJobs(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := testsupport.WriteScript(t, binDir, "ffmpeg", "exit 0\n")
	env := newCLIEnv(t, testsupport.WithFFmpegBinary(ffmpeg))
	first := env.writeState(t, "first", 23)
	second := env.writeState(t, "second", 20)

	out, err := env.run(t, "run", first, second)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if strings.Count(out, "Completed") != 2 {
		t.Fatalf("expected two completed jobs:\n%s", out)
	}
}

func TestRunCommandReportsFailures(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := testsupport.WriteScript(t, binDir, "ffmpeg", "echo 'Permission denied' >&2\nexit 1\n")
	env := newCLIEnv(t, testsupport.WithFFmpegBinary(ffmpeg))
	statePath := env.writeState(t, "broken", 23)

	out, err := env.run(t, "run", statePath)
	if err == nil {
		t.Fatalf("expected run to fail:\n%s", out)
	}
	if !strings.Contains(out, "Failed") {
		t.Fatalf("expected failed job in summary:\n%s", out)
	}
}

func TestRunRejectsInvalidState(t *testing.T) {
	env := newCLIEnv(t)
	statePath := env.writeState(t, "bad", 60)
	out, err := env.run(t, "run", statePath)
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("expected invalid state error, got %v\n%s", err, out)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "config", "show")
	if err != nil || !strings.Contains(out, "[queue]") || !strings.Contains(out, "max_concurrent") {
		t.Fatalf("config show failed: %v\n%s", err, out)
	}

	out, err = env.run(t, "config", "validate")
	if err != nil || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("config validate failed: %v\n%s", err, out)
	}

	target := filepath.Join(env.dir, "sample", "config.toml")
	if out, err := env.run(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel("cancelled"); got != "Cancelled" {
		t.Fatalf("statusLabel = %q", got)
	}
}
