package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InputKind classifies where an input is read from.
type InputKind string

const (
	InputFile   InputKind = "file"
	InputURL    InputKind = "url"
	InputDevice InputKind = "device"
	InputPipe   InputKind = "pipe"
)

// StreamType identifies the media type a mapping selects.
type StreamType string

const (
	StreamVideo    StreamType = "video"
	StreamAudio    StreamType = "audio"
	StreamSubtitle StreamType = "subtitle"
	StreamData     StreamType = "data"
)

// Specifier returns the single-letter stream specifier ffmpeg expects.
// Matching ignores case and surrounding space, like the validator does.
func (t StreamType) Specifier() string {
	switch StreamType(Canonical(string(t))) {
	case StreamVideo:
		return "v"
	case StreamAudio:
		return "a"
	case StreamSubtitle:
		return "s"
	case StreamData:
		return "d"
	default:
		return ""
	}
}

// State is the declarative description of a single encode.
type State struct {
	Inputs         []Input         `json:"inputs"`
	Output         Output          `json:"output"`
	VideoCodec     VideoCodec      `json:"video_codec"`
	AudioCodec     AudioCodec      `json:"audio_codec"`
	VideoFilters   []Filter        `json:"video_filters"`
	AudioFilters   []Filter        `json:"audio_filters"`
	StreamMappings []StreamMapping `json:"stream_mappings"`
	GlobalOptions  GlobalOptions   `json:"global_options"`
}

// Input describes one source. SeekStart and Duration accept ffmpeg time
// syntax ("90", "00:01:30", "1:30.5"). StreamLoop of -1 loops forever.
type Input struct {
	Kind       InputKind `json:"kind"`
	Path       string    `json:"path"`
	Format     string    `json:"format,omitempty"`
	SeekStart  string    `json:"seek_start,omitempty"`
	Duration   string    `json:"duration,omitempty"`
	StreamLoop int       `json:"stream_loop,omitempty"`
}

// Output describes the destination container and its muxer options.
type Output struct {
	Path            string  `json:"path"`
	Format          string  `json:"format,omitempty"`
	FastStart       bool    `json:"fast_start,omitempty"`
	SegmentDuration float64 `json:"segment_duration,omitempty"`
	PlaylistType    string  `json:"playlist_type,omitempty"`
	SegmentFilename string  `json:"segment_filename,omitempty"`
}

// ResolvedFormat returns the declared container, falling back to the one
// implied by the output extension.
func (o Output) ResolvedFormat() string {
	if f := strings.ToLower(strings.TrimSpace(o.Format)); f != "" {
		return f
	}
	return ContainerForPath(o.Path)
}

// VideoCodec holds encoder selection and rate control. A nil CRF selects
// bitrate-driven rate control.
type VideoCodec struct {
	Codec       string            `json:"codec"`
	CRF         *int              `json:"crf,omitempty"`
	Bitrate     string            `json:"bitrate,omitempty"`
	MaxRate     string            `json:"max_rate,omitempty"`
	BufSize     string            `json:"buf_size,omitempty"`
	Preset      string            `json:"preset,omitempty"`
	Tune        string            `json:"tune,omitempty"`
	Profile     string            `json:"profile,omitempty"`
	Level       string            `json:"level,omitempty"`
	PixelFormat string            `json:"pixel_format,omitempty"`
	GOPSize     int               `json:"gop_size,omitempty"`
	FrameRate   string            `json:"frame_rate,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

// AudioCodec holds audio encoder selection.
type AudioCodec struct {
	Codec         string `json:"codec"`
	Bitrate       string `json:"bitrate,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	Profile       string `json:"profile,omitempty"`
}

// Filter is one entry of a video or audio filter chain. Params carries
// filter-specific values; the "custom" type reads its passthrough text from
// the "raw" key.
type Filter struct {
	Type    string         `json:"type"`
	Enabled bool           `json:"enabled"`
	Order   int            `json:"order"`
	Params  map[string]any `json:"params,omitempty"`
}

// Float returns a numeric parameter. JSON decoding yields float64 while Go
// callers commonly use int, so both are accepted along with numeric strings.
func (f Filter) Float(key string) (float64, bool) {
	v, ok := f.Params[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// String returns a parameter rendered as text, or "" when absent.
func (f Filter) String(key string) string {
	v, ok := f.Params[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// StreamMapping assigns an input stream to an output slot.
type StreamMapping struct {
	InputIndex  int        `json:"input_index"`
	StreamType  StreamType `json:"stream_type"`
	StreamIndex int        `json:"stream_index"`
	OutputIndex int        `json:"output_index"`
	Exclude     bool       `json:"exclude,omitempty"`
	Language    string     `json:"language,omitempty"`
	Title       string     `json:"title,omitempty"`
}

// GlobalOptions control process-wide ffmpeg behaviour.
type GlobalOptions struct {
	Overwrite   bool    `json:"overwrite"`
	HideBanner  bool    `json:"hide_banner"`
	LogLevel    string  `json:"log_level,omitempty"`
	Threads     int     `json:"threads,omitempty"`
	StatsPeriod float64 `json:"stats_period,omitempty"`
	NoStdin     bool    `json:"no_stdin"`
	HWAccel     HWAccel `json:"hwaccel"`
}

// HWAccel selects a hardware-acceleration family and its device.
type HWAccel struct {
	Family string `json:"family,omitempty"`
	Device string `json:"device,omitempty"`
	Decode bool   `json:"decode,omitempty"`
}

// ActiveFilters returns the enabled filters of a chain sorted by order. The
// input slice is not modified.
func ActiveFilters(chain []Filter) []Filter {
	active := make([]Filter, 0, len(chain))
	for _, f := range chain {
		if f.Enabled {
			active = append(active, f)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })
	return active
}

// IsCopy reports whether the codec passes the stream through unchanged.
func IsCopy(codec string) bool {
	return strings.EqualFold(strings.TrimSpace(codec), CodecCopy)
}

// IsDisabled reports whether the codec drops the stream entirely.
func IsDisabled(codec string) bool {
	return strings.EqualFold(strings.TrimSpace(codec), CodecNone)
}
