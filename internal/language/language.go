package language

import (
	"strings"
	"sync"
)

// Undetermined is the ISO 639-2 code for an unknown language.
const Undetermined = "und"

type entry struct {
	code2   string
	code3   string
	alt3    string
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"tr", "tur", "", "Turkish"},
	{"cs", "ces", "cze", "Czech"},
	{"el", "ell", "gre", "Greek"},
	{"he", "heb", "", "Hebrew"},
	{"hu", "hun", "", "Hungarian"},
	{"uk", "ukr", "", "Ukrainian"},
}

var (
	indexOnce sync.Once
	index     map[string]*entry
)

func lookup(code string) *entry {
	indexOnce.Do(func() {
		index = make(map[string]*entry, len(languages)*4)
		for i := range languages {
			e := &languages[i]
			index[e.code2] = e
			index[e.code3] = e
			if e.alt3 != "" {
				index[e.alt3] = e
			}
			index[strings.ToLower(e.display)] = e
		}
	})
	return index[strings.ToLower(strings.TrimSpace(code))]
}

// Known reports whether code is a recognized code or English name.
func Known(code string) bool {
	return lookup(code) != nil
}

// MetadataCode returns the ISO 639-2 code ffmpeg should store for code.
// Recognized codes and names map to their terminology form; other 3-letter
// codes pass through lowercased; anything else is returned trimmed and
// unchanged so the caller's intent survives.
func MetadataCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	if e := lookup(trimmed); e != nil {
		return e.code3
	}
	if len(trimmed) == 3 && isLetters(trimmed) {
		return strings.ToLower(trimmed)
	}
	return trimmed
}

// IsISO6392 reports whether code has the shape of an ISO 639-2 code.
func IsISO6392(code string) bool {
	code = strings.TrimSpace(code)
	return len(code) == 3 && isLetters(code)
}

// DisplayName returns a human-readable name, "Unknown" for empty or
// undetermined input, or the uppercased code when unrecognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, Undetermined) {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return strings.ToUpper(trimmed)
}

// FromTags extracts the language from ffprobe stream tags.
func FromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
