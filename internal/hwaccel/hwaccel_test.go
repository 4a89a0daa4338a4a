package hwaccel

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry()
	if names := r.Names(); len(names) != 0 {
		t.Fatalf("expected empty registry, got %v", names)
	}
	if _, ok := r.Lookup(VAAPI); ok {
		t.Fatal("expected no families before RegisterDefaults")
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		t.Fatalf("RegisterDefaults: %v", err)
	}
	want := []string{NVENC, QSV, Software, VAAPI}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	if err := RegisterDefaults(r); !errors.Is(err, ErrDuplicateFamily) {
		t.Fatalf("expected ErrDuplicateFamily on second registration, got %v", err)
	}
}

func TestFamilyForCodec(t *testing.T) {
	r := NewDefaultRegistry()
	tests := map[string]string{
		"hevc_nvenc": NVENC,
		"h264_qsv":   QSV,
		"H264_VAAPI": VAAPI,
		"libx264":    Software,
		"copy":       Software,
	}
	for codec, want := range tests {
		f, ok := r.FamilyForCodec(codec)
		if !ok || f.Name != want {
			t.Errorf("FamilyForCodec(%q) = %q, %v; want %q", codec, f.Name, ok, want)
		}
	}
}

func TestFamilyFlags(t *testing.T) {
	r := NewDefaultRegistry()

	vaapi, _ := r.Lookup("VAAPI")
	if got := vaapi.DeviceArgs(""); !reflect.DeepEqual(got, []string{"-init_hw_device", "vaapi=va:/dev/dri/renderD128", "-filter_hw_device", "va"}) {
		t.Fatalf("vaapi DeviceArgs = %v", got)
	}
	if vaapi.Alias("scale") != "scale_vaapi" || vaapi.Alias("crop") != "crop" {
		t.Fatal("vaapi alias mismatch")
	}
	if vaapi.Quality() != "-qp" || !vaapi.RequiresUpload {
		t.Fatal("vaapi quality/upload mismatch")
	}

	nvenc, _ := r.Lookup(NVENC)
	if got := nvenc.DecodeArgs("1"); !reflect.DeepEqual(got, []string{"-hwaccel", "cuda", "-hwaccel_output_format", "cuda", "-hwaccel_device", "1"}) {
		t.Fatalf("nvenc DecodeArgs = %v", got)
	}
	if nvenc.DeviceArgs("") != nil {
		t.Fatal("nvenc should not need device init")
	}

	sw, ok := r.Lookup("")
	if !ok || sw.Name != Software || sw.Quality() != "-crf" {
		t.Fatalf("empty lookup should resolve to software, got %+v", sw)
	}
}

func TestRegisterRejectsBlankName(t *testing.T) {
	if err := NewRegistry().Register(Family{}); err == nil {
		t.Fatal("expected error for blank family name")
	}
}
