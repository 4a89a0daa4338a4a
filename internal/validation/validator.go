package validation

import (
	"fmt"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
)

// Capabilities is the subset of an installed-ffmpeg lookup the validator
// consults. *capabilities.Table satisfies it.
type Capabilities interface {
	HasEncoder(name string) bool
	HasMuxer(name string) bool
	HasFilter(name string) bool
}

// Validator runs every per-domain rule against a state.
type Validator struct {
	registry *hwaccel.Registry
	caps     Capabilities
}

// Option customizes a Validator.
type Option func(*Validator)

// WithCapabilities enables warnings for encoders, muxers and filters the
// installed ffmpeg does not provide.
func WithCapabilities(caps Capabilities) Option {
	return func(v *Validator) {
		v.caps = caps
	}
}

// New constructs a Validator. A nil registry accepts only the software family.
func New(registry *hwaccel.Registry, opts ...Option) *Validator {
	if registry == nil {
		registry = hwaccel.NewRegistry()
	}
	v := &Validator{registry: registry}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the whole state.
func (v *Validator) Validate(state builder.State) Result {
	result := NewResult()

	if len(state.Inputs) == 0 {
		result.AddError("inputs", "at least one input is required")
	}
	for i, in := range state.Inputs {
		result.Merge(ValidateInput(fmt.Sprintf("inputs[%d]", i), in))
	}
	result.Merge(ValidateOutput(state.Output))
	result.Merge(ValidateVideoCodec(state.VideoCodec))
	result.Merge(ValidateAudioCodec(state.AudioCodec))
	result.Merge(ValidateFilterChain("video_filters", state.VideoFilters, builder.IsKnownVideoFilter))
	result.Merge(ValidateFilterChain("audio_filters", state.AudioFilters, builder.IsKnownAudioFilter))
	result.Merge(ValidateStreamMappings(state.StreamMappings, len(state.Inputs)))
	result.Merge(v.validateGlobalOptions(state.GlobalOptions))
	result.Merge(v.crossCutting(state))
	if v.caps != nil {
		result.Merge(v.capabilityWarnings(state))
	}
	return result
}
