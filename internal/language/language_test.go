package language

import "testing"

func TestMetadataCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "eng"},
		{"EN", "eng"},
		{"eng", "eng"},
		{"fre", "fra"},
		{"ger", "deu"},
		{"English", "eng"},
		{" chinese ", "zho"},
		{"tlh", "tlh"},
		{"TLH", "tlh"},
		{"pt-BR", "pt-BR"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := MetadataCode(tt.input); got != tt.want {
			t.Errorf("MetadataCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKnownAndShape(t *testing.T) {
	if !Known("de") || !Known("dut") || !Known("finnish") {
		t.Fatal("expected known codes")
	}
	if Known("xx") || Known("") {
		t.Fatal("unexpected known code")
	}
	if !IsISO6392("tlh") || IsISO6392("en") || IsISO6392("e1g") {
		t.Fatal("IsISO6392 shape check failed")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"eng": "English",
		"ja":  "Japanese",
		"":    "Unknown",
		"und": "Unknown",
		"xyz": "XYZ",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"nil", nil, ""},
		{"lowercase key", map[string]string{"language": "ENG"}, "eng"},
		{"uppercase key", map[string]string{"LANGUAGE": "fre"}, "fre"},
		{"ietf", map[string]string{"language_ietf": "en-US"}, "en-us"},
		{"null bytes", map[string]string{"language": "jpn\u0000"}, "jpn"},
		{"blank falls through", map[string]string{"language": " ", "lang": "spa"}, "spa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTags(tt.tags); got != tt.want {
				t.Fatalf("FromTags = %q, want %q", got, tt.want)
			}
		})
	}
}
