package validation

import (
	"fmt"
	"strings"

	"ffcraft/internal/builder"
)

// ValidateFilterChain checks a video or audio filter chain. Order values
// must be unique across the whole chain, disabled entries included.
func ValidateFilterChain(field string, chain []builder.Filter, known func(string) bool) Result {
	result := NewResult()
	seen := make(map[int]int, len(chain))
	for i, f := range chain {
		entry := fmt.Sprintf("%s[%d]", field, i)
		if prev, dup := seen[f.Order]; dup {
			result.AddError(entry+".order", "duplicate order %d (also used by %s[%d])", f.Order, field, prev)
		} else {
			seen[f.Order] = i
		}

		filterType := strings.ToLower(strings.TrimSpace(f.Type))
		if filterType == "" {
			result.AddError(entry+".type", "type is required")
			continue
		}
		if !known(filterType) {
			result.AddError(entry+".type", "unknown filter type %q", f.Type)
			continue
		}
		validateFilterParams(&result, entry, filterType, f)
	}
	return result
}

func validateFilterParams(result *Result, field, filterType string, f builder.Filter) {
	switch filterType {
	case builder.FilterCustom:
		if f.String("raw") == "" {
			result.AddError(field+".params.raw", "custom filters require a raw filter string")
		}
	case "fps":
		v, ok := f.Float("fps")
		if !ok || v <= 0 {
			result.AddError(field+".params.fps", "must be greater than 0")
		}
	case "atempo":
		v, ok := f.Float("tempo")
		if !ok || v < 0.5 || v > 100 {
			result.AddError(field+".params.tempo", "must be between 0.5 and 100")
		}
	case "volume":
		v, ok := f.Float("volume")
		if !ok || v < 0 {
			result.AddError(field+".params.volume", "must be 0 or greater")
		}
	case "scale":
		sized := false
		for _, key := range []string{"width", "height"} {
			v, ok := f.Float(key)
			if !ok {
				continue
			}
			sized = true
			if v == 0 || (v < 0 && v != -1 && v != -2) {
				result.AddError(field+".params."+key, "must be positive, -1 or -2")
			}
		}
		if !sized {
			result.AddError(field+".params", "scale requires width or height")
		}
	case "crop":
		for _, key := range []string{"width", "height"} {
			if v, ok := f.Float(key); !ok || v <= 0 {
				result.AddError(field+".params."+key, "must be greater than 0")
			}
		}
	case "aresample":
		if v, ok := f.Float("sample_rate"); !ok || v <= 0 {
			result.AddError(field+".params.sample_rate", "must be greater than 0")
		}
	case "highpass", "lowpass":
		if v, ok := f.Float("frequency"); !ok || v <= 0 {
			result.AddError(field+".params.frequency", "must be greater than 0")
		}
	case "subtitles":
		if f.String("path") == "" {
			result.AddError(field+".params.path", "subtitles filter requires a path")
		}
	case "drawtext":
		if f.String("text") == "" {
			result.AddError(field+".params.text", "drawtext requires text")
		}
	}
}
