package deps

import (
	"os"
	"path/filepath"
	"testing"

	"ffcraft/internal/config"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("MissingRequired = %#v", missing)
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.FFmpeg.Binary = "/opt/ffmpeg/bin/ffmpeg"
	reqs := Requirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" || reqs[0].Optional {
		t.Fatalf("unexpected ffmpeg requirement: %#v", reqs[0])
	}
	if !reqs[1].Optional {
		t.Fatal("ffprobe should be optional")
	}
	if got := Requirements(nil)[0].Command; got != "ffmpeg" {
		t.Fatalf("nil config ffmpeg command = %q", got)
	}
}

func TestResolveFFprobePrefersSibling(t *testing.T) {
	dir := t.TempDir()
	ffmpegPath := filepath.Join(dir, "ffmpeg")
	ffprobePath := filepath.Join(dir, "ffprobe")
	writeStub(t, ffmpegPath)
	writeStub(t, ffprobePath)

	status := ResolveFFprobe(ffmpegPath)
	if !status.Available || status.Command != ffprobePath {
		t.Fatalf("expected sibling ffprobe %q, got %#v", ffprobePath, status)
	}
}

func TestResolveFFprobePathFallback(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, "ffmpeg")
	writeStub(t, ffmpegPath)

	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	ffprobePath := filepath.Join(binDir, "ffprobe")
	writeStub(t, ffprobePath)
	t.Setenv("PATH", binDir)

	status := ResolveFFprobe(ffmpegPath)
	if !status.Available || status.Command != ffprobePath {
		t.Fatalf("expected PATH fallback %q, got %#v", ffprobePath, status)
	}
}

func TestResolveFFprobeMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := ResolveFFprobe("")
	if status.Available || status.Detail == "" {
		t.Fatalf("expected unavailable ffprobe with detail, got %#v", status)
	}
}
