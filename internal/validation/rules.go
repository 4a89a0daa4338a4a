package validation

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
)

var (
	bitratePattern   = regexp.MustCompile(`^\d+[kKmM]$`)
	timestampPattern = regexp.MustCompile(`^(?:\d+:)?\d+:\d+(?:\.\d+)?$|^\d+(?:\.\d+)?(?:s|ms|us)?$`)
	frameRatePattern = regexp.MustCompile(`^\d+(?:\.\d+)?$|^\d+/\d+$`)
)

var logLevels = map[string]struct{}{
	"quiet": {}, "panic": {}, "fatal": {}, "error": {}, "warning": {},
	"info": {}, "verbose": {}, "debug": {}, "trace": {},
}

var x26xPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {}, "placebo": {},
}

var playlistTypes = map[string]struct{}{"vod": {}, "event": {}}

// ValidateInput checks one input descriptor. Local paths are never checked
// for existence here; the executor reports missing inputs at run time.
func ValidateInput(field string, in builder.Input) Result {
	result := NewResult()
	path := strings.TrimSpace(in.Path)
	if path == "" {
		result.AddError(field+".path", "path is required")
	}

	switch in.Kind {
	case builder.InputURL:
		if path != "" {
			validateURL(&result, field+".path", path)
		}
	case "":
		if strings.Contains(path, "://") {
			validateURL(&result, field+".path", path)
		}
	case builder.InputFile, builder.InputDevice, builder.InputPipe:
	default:
		result.AddError(field+".kind", "unsupported input kind %q", in.Kind)
	}

	if in.SeekStart != "" && !timestampPattern.MatchString(strings.TrimSpace(in.SeekStart)) {
		result.AddError(field+".seek_start", "invalid timestamp %q", in.SeekStart)
	}
	if in.Duration != "" && !timestampPattern.MatchString(strings.TrimSpace(in.Duration)) {
		result.AddError(field+".duration", "invalid timestamp %q", in.Duration)
	}
	if in.StreamLoop < -1 {
		result.AddError(field+".stream_loop", "must be -1 (infinite) or greater")
	}
	return result
}

func validateURL(result *Result, field, raw string) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		result.AddError(field, "invalid URL %q", raw)
		return
	}
	if !builder.IsAllowedURLScheme(parsed.Scheme) {
		result.AddError(field, "unsupported URL scheme %q", parsed.Scheme)
	}
}

// ValidateOutput checks the output descriptor.
func ValidateOutput(out builder.Output) Result {
	result := NewResult()
	path := strings.TrimSpace(out.Path)
	if path == "" {
		result.AddError("output.path", "path is required")
	}

	declared := strings.ToLower(strings.TrimSpace(out.Format))
	implied := builder.ContainerForPath(path)
	switch {
	case declared != "" && !builder.IsKnownContainer(declared):
		result.AddError("output.format", "unknown container %q", out.Format)
	case declared == "" && implied == "" && path != "":
		result.AddError("output.format", "cannot infer container from %q; set output.format", path)
	case declared != "" && implied != "" && declared != implied:
		result.AddWarning("output.path", "extension implies %s but format is %s", implied, declared)
	}

	format := out.ResolvedFormat()
	segmented := format == "hls" || format == "dash"
	if out.SegmentDuration < 0 {
		result.AddError("output.segment_duration", "must not be negative")
	}
	if !segmented && (out.SegmentDuration > 0 || out.PlaylistType != "" || out.SegmentFilename != "") {
		result.AddWarning("output", "segment options are ignored for %s output", displayFormat(format))
	}
	if out.PlaylistType != "" {
		if _, ok := playlistTypes[strings.ToLower(out.PlaylistType)]; !ok {
			result.AddError("output.playlist_type", "must be vod or event")
		}
	}
	if out.FastStart && format != "mp4" && format != "mov" {
		result.AddWarning("output.fast_start", "fast start only applies to mp4 and mov output")
	}
	return result
}

// ValidateVideoCodec checks video encoder settings. copy and none skip every
// quality rule since those fields are never rendered.
func ValidateVideoCodec(vc builder.VideoCodec) Result {
	result := NewResult()
	codec := strings.ToLower(strings.TrimSpace(vc.Codec))
	if codec == "" {
		result.AddError("video_codec.codec", "codec is required")
		return result
	}
	if !builder.IsKnownVideoCodec(codec) {
		result.AddError("video_codec.codec", "unknown video codec %q", vc.Codec)
		return result
	}
	if builder.IsCopy(codec) || builder.IsDisabled(codec) {
		return result
	}

	if vc.CRF != nil && (*vc.CRF < 0 || *vc.CRF > 51) {
		result.AddError("video_codec.crf", "must be between 0 and 51, got %d", *vc.CRF)
	}
	validateBitrate(&result, "video_codec.bitrate", vc.Bitrate)
	validateBitrate(&result, "video_codec.max_rate", vc.MaxRate)
	validateBitrate(&result, "video_codec.buf_size", vc.BufSize)
	if vc.CRF != nil && vc.Bitrate != "" {
		result.AddWarning("video_codec.bitrate", "ignored because crf is set")
	}
	if vc.GOPSize < 0 {
		result.AddError("video_codec.gop_size", "must not be negative")
	}
	if vc.FrameRate != "" && !validFrameRate(vc.FrameRate) {
		result.AddError("video_codec.frame_rate", "invalid frame rate %q", vc.FrameRate)
	}
	if vc.Preset != "" && (codec == "libx264" || codec == "libx265") {
		if _, ok := x26xPresets[strings.ToLower(vc.Preset)]; !ok {
			result.AddWarning("video_codec.preset", "unknown %s preset %q", codec, vc.Preset)
		}
	}
	return result
}

func validFrameRate(value string) bool {
	value = strings.TrimSpace(value)
	if !frameRatePattern.MatchString(value) {
		return false
	}
	num, den, isRatio := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return false
	}
	if isRatio {
		d, err := strconv.ParseFloat(den, 64)
		return err == nil && d > 0
	}
	return true
}

// ValidateAudioCodec checks audio encoder settings.
func ValidateAudioCodec(ac builder.AudioCodec) Result {
	result := NewResult()
	codec := strings.ToLower(strings.TrimSpace(ac.Codec))
	if codec == "" {
		result.AddError("audio_codec.codec", "codec is required")
		return result
	}
	if !builder.IsKnownAudioCodec(codec) {
		result.AddError("audio_codec.codec", "unknown audio codec %q", ac.Codec)
		return result
	}
	if builder.IsCopy(codec) || builder.IsDisabled(codec) {
		return result
	}

	validateBitrate(&result, "audio_codec.bitrate", ac.Bitrate)
	if ac.Channels != 0 && (ac.Channels < 1 || ac.Channels > 8) {
		result.AddError("audio_codec.channels", "must be between 1 and 8, got %d", ac.Channels)
	}
	if ac.ChannelLayout != "" && !builder.IsKnownChannelLayout(ac.ChannelLayout) {
		result.AddError("audio_codec.channel_layout", "unknown channel layout %q", ac.ChannelLayout)
	}
	if ac.SampleRate < 0 {
		result.AddError("audio_codec.sample_rate", "must be positive")
	}
	return result
}

func validateBitrate(result *Result, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if strings.HasPrefix(value, "-") {
		result.AddError(field, "must not be negative")
		return
	}
	if !bitratePattern.MatchString(value) {
		result.AddError(field, "invalid bitrate %q (expected digits followed by k or M, e.g. 2500k)", value)
	}
}

func (v *Validator) validateGlobalOptions(g builder.GlobalOptions) Result {
	result := NewResult()
	if g.LogLevel != "" {
		if _, ok := logLevels[strings.ToLower(g.LogLevel)]; !ok {
			result.AddError("global_options.log_level", "unknown log level %q", g.LogLevel)
		}
	}
	if g.Threads < 0 {
		result.AddError("global_options.threads", "must not be negative")
	}
	if g.StatsPeriod < 0 {
		result.AddError("global_options.stats_period", "must not be negative")
	}
	family := strings.TrimSpace(g.HWAccel.Family)
	if family == "" {
		return result
	}
	f, ok := v.registry.Lookup(family)
	if !ok {
		result.AddError("global_options.hwaccel.family", "unknown hardware acceleration family %q", family)
		return result
	}
	if f.Name == hwaccel.Software && (g.HWAccel.Decode || g.HWAccel.Device != "") {
		result.AddWarning("global_options.hwaccel", "device and decode settings are ignored for software encoding")
	}
	return result
}

func displayFormat(format string) string {
	if format == "" {
		return "this"
	}
	return format
}
