package validation

import (
	"fmt"

	"ffcraft/internal/builder"
	"ffcraft/internal/language"
)

type mappingSlot struct {
	streamType builder.StreamType
	output     int
}

// ValidateStreamMappings checks mappings against the number of declared
// inputs. Two non-excluded mappings targeting the same (stream type, output
// index) slot are fatal since the second would silently replace the first.
func ValidateStreamMappings(mappings []builder.StreamMapping, inputCount int) Result {
	result := NewResult()
	slots := make(map[mappingSlot]int, len(mappings))
	for i, m := range mappings {
		field := fmt.Sprintf("stream_mappings[%d]", i)
		if m.InputIndex < 0 {
			result.AddError(field+".input_index", "must not be negative")
		} else if inputCount > 0 && m.InputIndex >= inputCount {
			result.AddError(field+".input_index", "references input %d but only %d declared", m.InputIndex, inputCount)
		}
		if m.StreamIndex < 0 {
			result.AddError(field+".stream_index", "must not be negative")
		}
		if m.OutputIndex < 0 {
			result.AddError(field+".output_index", "must not be negative")
		}
		if !builder.IsKnownStreamType(m.StreamType) {
			result.AddError(field+".stream_type", "unknown stream type %q", m.StreamType)
			continue
		}
		if m.Exclude {
			continue
		}
		if lang := m.Language; lang != "" && !language.Known(lang) && !language.IsISO6392(lang) {
			result.AddWarning(field+".language", "%q is not an ISO 639 code; players may not recognize it", lang)
		}
		slot := mappingSlot{streamType: builder.StreamType(builder.Canonical(string(m.StreamType))), output: m.OutputIndex}
		if prev, dup := slots[slot]; dup {
			result.AddError(field, "duplicate %s output index %d (also used by stream_mappings[%d])", slot.streamType, m.OutputIndex, prev)
			continue
		}
		slots[slot] = i
	}
	return result
}
