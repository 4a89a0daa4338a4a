package validation

import (
	"fmt"
	"strings"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
)

// videoFormat maps an encoder to the bitstream format it produces.
func videoFormat(codec string) string {
	switch {
	case codec == "libx264" || strings.HasPrefix(codec, "h264_"):
		return "h264"
	case codec == "libx265" || strings.HasPrefix(codec, "hevc_"):
		return "hevc"
	case codec == "libvpx":
		return "vp8"
	case codec == "libvpx-vp9" || strings.HasPrefix(codec, "vp9_"):
		return "vp9"
	case codec == "libaom-av1" || codec == "libsvtav1" || strings.HasPrefix(codec, "av1_"):
		return "av1"
	case codec == "prores_ks":
		return "prores"
	default:
		return codec
	}
}

func audioFormat(codec string) string {
	switch {
	case codec == "aac" || codec == "libfdk_aac":
		return "aac"
	case codec == "libmp3lame":
		return "mp3"
	case codec == "libopus":
		return "opus"
	case codec == "libvorbis":
		return "vorbis"
	case strings.HasPrefix(codec, "pcm_"):
		return "pcm"
	default:
		return codec
	}
}

// Containers absent from these tables accept anything (matroska, null).
var containerVideo = map[string][]string{
	"webm":   {"vp8", "vp9", "av1"},
	"mp4":    {"h264", "hevc", "av1", "vp9", "mpeg4", "mjpeg"},
	"mov":    {"h264", "hevc", "prores", "mpeg4", "mjpeg", "av1"},
	"flv":    {"h264"},
	"hls":    {"h264", "hevc"},
	"dash":   {"h264", "hevc", "vp9", "av1"},
	"mpegts": {"h264", "hevc", "mpeg4"},
	"avi":    {"mpeg4", "h264", "mjpeg"},
}

var containerAudio = map[string][]string{
	"webm":   {"opus", "vorbis"},
	"mp4":    {"aac", "mp3", "ac3", "eac3", "opus", "flac", "alac"},
	"mov":    {"aac", "alac", "pcm", "mp3", "ac3"},
	"flv":    {"aac", "mp3"},
	"hls":    {"aac", "ac3", "eac3", "mp3"},
	"dash":   {"aac", "opus", "ac3", "eac3"},
	"mpegts": {"aac", "mp3", "ac3", "eac3", "opus"},
	"avi":    {"mp3", "ac3", "pcm"},
	"mp3":    {"mp3"},
	"ipod":   {"aac", "alac"},
	"adts":   {"aac"},
	"flac":   {"flac"},
	"ogg":    {"vorbis", "opus", "flac"},
	"wav":    {"pcm"},
	"opus":   {"opus"},
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// encodes reports whether codec produces a new stream, as opposed to
// passthrough, drop, or unset.
func encodes(codec string) bool {
	return codec != "" && !builder.IsCopy(codec) && !builder.IsDisabled(codec)
}

// crossCutting adds warnings that span several domains.
func (v *Validator) crossCutting(state builder.State) Result {
	result := NewResult()
	format := state.Output.ResolvedFormat()
	video := strings.ToLower(strings.TrimSpace(state.VideoCodec.Codec))
	audio := strings.ToLower(strings.TrimSpace(state.AudioCodec.Codec))

	if format != "" {
		if builder.IsAudioOnlyContainer(format) && video != "" && !builder.IsDisabled(video) {
			result.AddWarning("video_codec.codec", "%s is an audio-only container; set video codec to none", format)
		} else if allowed, ok := containerVideo[format]; ok && encodes(video) && !contains(allowed, videoFormat(video)) {
			result.AddWarning("video_codec.codec", "%s is not compatible with %s output", video, format)
		}
		if allowed, ok := containerAudio[format]; ok && encodes(audio) && !contains(allowed, audioFormat(audio)) {
			result.AddWarning("audio_codec.codec", "%s is not compatible with %s output", audio, format)
		}
	}

	if len(builder.ActiveFilters(state.VideoFilters)) > 0 && (builder.IsCopy(video) || builder.IsDisabled(video)) {
		result.AddWarning("video_filters", "ignored because video codec is %s", video)
	}
	if len(builder.ActiveFilters(state.AudioFilters)) > 0 && (builder.IsCopy(audio) || builder.IsDisabled(audio)) {
		result.AddWarning("audio_filters", "ignored because audio codec is %s", audio)
	}

	v.hardwareWarnings(&result, state, video)
	return result
}

func (v *Validator) hardwareWarnings(result *Result, state builder.State, video string) {
	selected, ok := v.registry.Lookup(state.GlobalOptions.HWAccel.Family)
	if !ok {
		return
	}
	if !encodes(video) {
		return
	}
	owner, ok := v.registry.FamilyForCodec(video)
	if !ok {
		return
	}
	switch {
	case owner.Name != hwaccel.Software && owner.Name != selected.Name:
		msg := fmt.Sprintf("%s needs hardware family %s", video, owner.Name)
		if owner.RequiresUpload {
			msg += " to initialise the device and upload frames"
		}
		result.AddWarning("global_options.hwaccel.family", "%s; set global_options.hwaccel.family to %s", msg, owner.Name)
	case owner.Name == hwaccel.Software && selected.Name != hwaccel.Software:
		result.AddWarning("global_options.hwaccel.family", "%s is a software encoder but hardware family %s is selected", video, selected.Name)
	}
}

func (v *Validator) capabilityWarnings(state builder.State) Result {
	result := NewResult()
	for _, c := range []struct{ field, codec string }{
		{"video_codec.codec", state.VideoCodec.Codec},
		{"audio_codec.codec", state.AudioCodec.Codec},
	} {
		if encodes(strings.TrimSpace(c.codec)) && !v.caps.HasEncoder(c.codec) {
			result.AddWarning(c.field, "encoder %s is not available in the installed ffmpeg", c.codec)
		}
	}
	if format := state.Output.ResolvedFormat(); format != "" && !v.caps.HasMuxer(format) {
		result.AddWarning("output.format", "muxer %s is not available in the installed ffmpeg", format)
	}
	for _, chain := range []struct {
		field   string
		filters []builder.Filter
	}{
		{"video_filters", state.VideoFilters},
		{"audio_filters", state.AudioFilters},
	} {
		for i, f := range chain.filters {
			if !f.Enabled || strings.EqualFold(f.Type, builder.FilterCustom) {
				continue
			}
			name := builder.FFmpegFilterName(f.Type)
			if name != "" && !v.caps.HasFilter(name) {
				result.AddWarning(fmt.Sprintf("%s[%d].type", chain.field, i), "filter %s is not available in the installed ffmpeg", name)
			}
		}
	}
	return result
}
