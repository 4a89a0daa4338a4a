package builder

import (
	"path/filepath"
	"strings"
)

const (
	// CodecCopy passes the stream through without re-encoding.
	CodecCopy = "copy"
	// CodecNone drops the stream from the output.
	CodecNone = "none"
	// FilterCustom passes Params["raw"] through verbatim.
	FilterCustom = "custom"
)

var videoCodecs = set(
	"libx264", "libx265", "libvpx", "libvpx-vp9", "libaom-av1", "libsvtav1",
	"mpeg4", "prores_ks", "mjpeg",
	"h264_nvenc", "hevc_nvenc", "av1_nvenc",
	"h264_qsv", "hevc_qsv", "av1_qsv", "vp9_qsv",
	"h264_vaapi", "hevc_vaapi", "av1_vaapi", "vp9_vaapi",
	CodecCopy, CodecNone,
)

var audioCodecs = set(
	"aac", "libfdk_aac", "libmp3lame", "libopus", "libvorbis", "ac3", "eac3",
	"flac", "alac", "pcm_s16le", "pcm_s24le",
	CodecCopy, CodecNone,
)

var losslessAudioCodecs = set("flac", "alac", "pcm_s16le", "pcm_s24le")

var audioOnlyContainers = set("mp3", "ipod", "adts", "flac", "ogg", "wav", "opus")

var containers = set(
	"mp4", "matroska", "webm", "mov", "mpegts", "flv", "avi", "hls", "dash",
	"mp3", "ipod", "adts", "flac", "ogg", "wav", "opus", "null",
)

var extensionContainers = map[string]string{
	".mp4":  "mp4",
	".m4v":  "mp4",
	".mkv":  "matroska",
	".webm": "webm",
	".mov":  "mov",
	".ts":   "mpegts",
	".m2ts": "mpegts",
	".flv":  "flv",
	".avi":  "avi",
	".m3u8": "hls",
	".mpd":  "dash",
	".mp3":  "mp3",
	".m4a":  "ipod",
	".aac":  "adts",
	".flac": "flac",
	".ogg":  "ogg",
	".oga":  "ogg",
	".wav":  "wav",
	".opus": "opus",
}

var channelLayouts = set("mono", "stereo", "2.1", "3.0", "quad", "4.0", "5.0", "5.1", "6.1", "7.1")

var videoFilterTypes = set(
	"scale", "crop", "pad", "fps", "transpose", "hflip", "vflip", "deinterlace",
	"denoise", "sharpen", "format", "drawtext", "subtitles", FilterCustom,
)

var audioFilterTypes = set(
	"volume", "atempo", "loudnorm", "aresample", "highpass", "lowpass",
	"acompressor", FilterCustom,
)

var urlSchemes = set("http", "https", "rtsp", "rtmp", "rtp", "udp", "tcp", "srt", "mms")

var streamTypes = set(string(StreamVideo), string(StreamAudio), string(StreamSubtitle), string(StreamData))

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Canonical returns the lower-case, trimmed form under which catalog names
// are matched and rendered. ffmpeg encoder, muxer and layout names are case
// sensitive, so the generator emits this form.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func has(m map[string]struct{}, key string) bool {
	_, ok := m[Canonical(key)]
	return ok
}

// IsKnownVideoCodec reports whether name is a supported video encoder, copy or none.
func IsKnownVideoCodec(name string) bool { return has(videoCodecs, name) }

// IsKnownAudioCodec reports whether name is a supported audio encoder, copy or none.
func IsKnownAudioCodec(name string) bool { return has(audioCodecs, name) }

// IsLosslessAudioCodec reports whether name encodes audio losslessly, in
// which case a bitrate is never rendered.
func IsLosslessAudioCodec(name string) bool { return has(losslessAudioCodecs, name) }

// IsKnownContainer reports whether name is a supported output muxer.
func IsKnownContainer(name string) bool { return has(containers, name) }

// IsAudioOnlyContainer reports whether the muxer cannot carry video.
func IsAudioOnlyContainer(name string) bool { return has(audioOnlyContainers, name) }

// IsKnownChannelLayout reports whether name is an accepted channel layout.
func IsKnownChannelLayout(name string) bool { return has(channelLayouts, name) }

// IsKnownVideoFilter reports whether name is a video filter type.
func IsKnownVideoFilter(name string) bool { return has(videoFilterTypes, name) }

// IsKnownAudioFilter reports whether name is an audio filter type.
func IsKnownAudioFilter(name string) bool { return has(audioFilterTypes, name) }

// IsAllowedURLScheme reports whether inputs may be read over scheme.
func IsAllowedURLScheme(name string) bool { return has(urlSchemes, name) }

// IsKnownStreamType reports whether t names a mappable stream type.
func IsKnownStreamType(t StreamType) bool { return has(streamTypes, string(t)) }

// ContainerForPath returns the container implied by a path's extension, or ""
// when the extension is unknown.
func ContainerForPath(path string) string {
	return extensionContainers[strings.ToLower(filepath.Ext(path))]
}

var filterNames = map[string]string{
	"deinterlace": "yadif",
	"denoise":     "hqdn3d",
	"sharpen":     "unsharp",
}

// FFmpegFilterName returns the ffmpeg filter implementing a filter type.
func FFmpegFilterName(filterType string) string {
	key := strings.ToLower(strings.TrimSpace(filterType))
	if name, ok := filterNames[key]; ok {
		return name
	}
	return key
}
