package builder

import (
	"encoding/json"
	"testing"
)

func TestActiveFiltersSortsAndSkipsDisabled(t *testing.T) {
	chain := []Filter{
		{Type: "fps", Enabled: true, Order: 3},
		{Type: "crop", Enabled: false, Order: 1},
		{Type: "scale", Enabled: true, Order: 2},
	}
	got := ActiveFilters(chain)
	if len(got) != 2 {
		t.Fatalf("expected 2 active filters, got %d", len(got))
	}
	if got[0].Type != "scale" || got[1].Type != "fps" {
		t.Fatalf("unexpected order: %q, %q", got[0].Type, got[1].Type)
	}
	if chain[0].Type != "fps" {
		t.Fatal("input chain was reordered")
	}
}

func TestFilterParamAccessors(t *testing.T) {
	var f Filter
	if err := json.Unmarshal([]byte(`{"type":"fps","enabled":true,"order":0,"params":{"fps":24,"label":" main ","ratio":"1.5"}}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := f.Float("fps"); !ok || v != 24 {
		t.Fatalf("Float(fps) = %v, %v", v, ok)
	}
	if v, ok := f.Float("ratio"); !ok || v != 1.5 {
		t.Fatalf("Float(ratio) = %v, %v", v, ok)
	}
	if _, ok := f.Float("missing"); ok {
		t.Fatal("expected missing param to report false")
	}
	if got := f.String("label"); got != "main" {
		t.Fatalf("String(label) = %q", got)
	}
	if got := f.String("fps"); got != "24" {
		t.Fatalf("String(fps) = %q", got)
	}

	goFilter := Filter{Params: map[string]any{"volume": 2}}
	if v, ok := goFilter.Float("volume"); !ok || v != 2 {
		t.Fatalf("Float on int param = %v, %v", v, ok)
	}
}

func TestContainerForPath(t *testing.T) {
	tests := map[string]string{
		"out.mkv":           "matroska",
		"/srv/a/B.MP4":      "mp4",
		"clip.ts":           "mpegts",
		"song.m4a":          "ipod",
		"stream/index.m3u8": "hls",
		"unknown.xyz":       "",
		"no-extension":      "",
	}
	for path, want := range tests {
		if got := ContainerForPath(path); got != want {
			t.Errorf("ContainerForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestOutputResolvedFormatPrefersDeclared(t *testing.T) {
	o := Output{Path: "out.mkv", Format: "MP4"}
	if got := o.ResolvedFormat(); got != "mp4" {
		t.Fatalf("ResolvedFormat = %q, want mp4", got)
	}
	o.Format = ""
	if got := o.ResolvedFormat(); got != "matroska" {
		t.Fatalf("ResolvedFormat = %q, want matroska", got)
	}
}

func TestCodecHelpers(t *testing.T) {
	if !IsCopy(" Copy ") || IsCopy("libx264") {
		t.Fatal("IsCopy mismatch")
	}
	if !IsDisabled("none") {
		t.Fatal("IsDisabled mismatch")
	}
	if !IsLosslessAudioCodec("FLAC") || IsLosslessAudioCodec("aac") || Canonical(" LIBX264 ") != "libx264" {
		t.Fatal("IsLosslessAudioCodec mismatch")
	}
	if StreamSubtitle.Specifier() != "s" || StreamType(" Video").Specifier() != "v" || StreamType("bogus").Specifier() != "" {
		t.Fatal("Specifier mismatch")
	}
}
