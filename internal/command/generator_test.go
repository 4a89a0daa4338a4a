package command

import (
	"reflect"
	"strings"
	"testing"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
	"ffcraft/internal/validation"
)

func intPtr(v int) *int { return &v }

func indexOf(tokens []string, tok string) int {
	for i, t := range tokens {
		if t == tok {
			return i
		}
	}
	return -1
}

func TestGenerateOrderingContract(t *testing.T) {
	state := builder.State{
		Inputs: []builder.Input{
			{Kind: builder.InputFile, Path: "in.mkv", SeekStart: "10", Duration: "60"},
			{Kind: builder.InputURL, Path: "rtsp://cam/stream", Format: "rtsp"},
		},
		Output: builder.Output{Path: "out.mp4", Format: "mp4", FastStart: true},
		VideoCodec: builder.VideoCodec{
			Codec:   "h264_vaapi",
			CRF:     intPtr(24),
			MaxRate: "5M",
			GOPSize: 48,
			Options: map[string]string{"rc_mode": "CQP", "-compression_level": "1"},
		},
		AudioCodec: builder.AudioCodec{Codec: "aac", Bitrate: "192k", Channels: 2},
		VideoFilters: []builder.Filter{
			{Type: "scale", Enabled: true, Order: 2, Params: map[string]any{"width": 1280, "height": -2}},
			{Type: "fps", Enabled: true, Order: 1, Params: map[string]any{"fps": 30}},
			{Type: "hflip", Enabled: false, Order: 0},
		},
		AudioFilters: []builder.Filter{
			{Type: "volume", Enabled: true, Params: map[string]any{"volume": 1.5}},
		},
		StreamMappings: []builder.StreamMapping{
			{InputIndex: 0, StreamType: builder.StreamVideo, StreamIndex: 0, OutputIndex: 0},
			{InputIndex: 0, StreamType: builder.StreamAudio, StreamIndex: 1, OutputIndex: 0, Language: "eng", Title: "Main"},
			{InputIndex: 1, StreamType: builder.StreamSubtitle, StreamIndex: 0, Exclude: true},
		},
		GlobalOptions: builder.GlobalOptions{
			Overwrite:   true,
			HideBanner:  true,
			LogLevel:    "error",
			NoStdin:     true,
			StatsPeriod: 0.5,
			HWAccel:     builder.HWAccel{Family: hwaccel.VAAPI},
		},
	}

	got := NewGenerator("ffmpeg", hwaccel.NewDefaultRegistry()).Generate(state)
	want := []string{
		"ffmpeg",
		"-hide_banner", "-loglevel", "error", "-y", "-nostdin", "-stats_period", "0.5",
		"-init_hw_device", "vaapi=va:/dev/dri/renderD128", "-filter_hw_device", "va",
		"-ss", "10", "-t", "60", "-i", "in.mkv",
		"-f", "rtsp", "-i", "rtsp://cam/stream",
		"-map", "0:v:0",
		"-map", "0:a:1", "-metadata:s:a:0", "language=eng", "-metadata:s:a:0", "title=Main",
		"-map", "-1:s:0",
		"-c:v", "h264_vaapi", "-qp", "24", "-maxrate", "5M", "-g", "48", "-compression_level", "1", "-rc_mode", "CQP",
		"-c:a", "aac", "-b:a", "192k", "-ac", "2",
		"-vf", "format=nv12,hwupload,fps=30,scale_vaapi=w=1280:h=-2",
		"-af", "volume=1.5",
		"-f", "mp4", "-movflags", "+faststart",
		"out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected command\n got: %v\nwant: %v", got, want)
	}
}

func TestCopyEmitsOnlyCopyFlag(t *testing.T) {
	state := builder.State{
		Inputs: []builder.Input{{Path: "in.mkv"}},
		Output: builder.Output{Path: "out.mkv"},
		VideoCodec: builder.VideoCodec{
			Codec: "copy", CRF: intPtr(18), Bitrate: "4M", MaxRate: "6M", BufSize: "8M",
			Preset: "slow", Tune: "film", Profile: "high", Level: "4.1", PixelFormat: "yuv420p",
			GOPSize: 120, FrameRate: "24", Options: map[string]string{"x264-params": "aq-mode=3"},
		},
		AudioCodec: builder.AudioCodec{
			Codec: "copy", Bitrate: "192k", SampleRate: 48000, Channels: 6, ChannelLayout: "5.1", Profile: "aac_low",
		},
		VideoFilters:  []builder.Filter{{Type: "scale", Enabled: true, Params: map[string]any{"width": 640}}},
		AudioFilters:  []builder.Filter{{Type: "volume", Enabled: true, Params: map[string]any{"volume": 2}}},
		GlobalOptions: builder.GlobalOptions{HWAccel: builder.HWAccel{Family: hwaccel.VAAPI}},
	}
	got := NewGenerator("", hwaccel.NewDefaultRegistry()).Generate(state)

	for _, pair := range [][2]string{{"-c:v", "copy"}, {"-c:a", "copy"}} {
		i := indexOf(got, pair[0])
		if i < 0 || got[i+1] != pair[1] {
			t.Fatalf("expected %s %s in %v", pair[0], pair[1], got)
		}
	}
	for _, banned := range []string{
		"-crf", "-b:v", "-maxrate", "-bufsize", "-preset", "-tune", "-profile:v", "-level",
		"-pix_fmt", "-g", "-r", "-x264-params", "-b:a", "-ar", "-ac", "-ch_layout", "-profile:a",
		"-vf", "-af", "-qp",
	} {
		if indexOf(got, banned) >= 0 {
			t.Fatalf("copy command leaked %s: %v", banned, got)
		}
	}
	if got[0] != "ffmpeg" || got[len(got)-1] != "out.mkv" {
		t.Fatalf("binary/output placement wrong: %v", got)
	}
}

func TestDisabledStreams(t *testing.T) {
	state := builder.State{
		Inputs:       []builder.Input{{Path: "in.mkv"}},
		Output:       builder.Output{Path: "out.flac"},
		VideoCodec:   builder.VideoCodec{Codec: "none", CRF: intPtr(20)},
		AudioCodec:   builder.AudioCodec{Codec: "flac", Bitrate: "900k", SampleRate: 96000},
		VideoFilters: []builder.Filter{{Type: "fps", Enabled: true, Params: map[string]any{"fps": 24}}},
	}
	got := NewGenerator("ffmpeg", nil).Generate(state)
	want := []string{"ffmpeg", "-n", "-i", "in.mkv", "-vn", "-c:a", "flac", "-ar", "96000", "out.flac"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestHardwareFamilies(t *testing.T) {
	registry := hwaccel.NewDefaultRegistry()
	base := builder.State{
		Inputs:       []builder.Input{{Path: "in.mkv"}},
		Output:       builder.Output{Path: "out.mkv"},
		VideoFilters: []builder.Filter{{Type: "scale", Enabled: true, Params: map[string]any{"width": 1920}}},
	}

	nvenc := base
	nvenc.VideoCodec = builder.VideoCodec{Codec: "hevc_nvenc", CRF: intPtr(28)}
	nvenc.GlobalOptions.HWAccel = builder.HWAccel{Family: hwaccel.NVENC, Decode: true}
	got := NewGenerator("ffmpeg", registry).Generate(nvenc)
	if strings.Join(got, " ") != "ffmpeg -n -hwaccel cuda -hwaccel_output_format cuda -i in.mkv -c:v hevc_nvenc -cq 28 -vf scale_cuda=w=1920 out.mkv" {
		t.Fatalf("unexpected nvenc command: %v", got)
	}

	qsv := base
	qsv.VideoCodec = builder.VideoCodec{Codec: "h264_qsv", CRF: intPtr(23)}
	qsv.GlobalOptions.HWAccel = builder.HWAccel{Family: hwaccel.QSV, Device: "/dev/dri/renderD129"}
	got = NewGenerator("ffmpeg", registry).Generate(qsv)
	if strings.Join(got, " ") != "ffmpeg -n -init_hw_device qsv=hw:/dev/dri/renderD129 -filter_hw_device hw -i in.mkv -c:v h264_qsv -global_quality 23 -vf scale=w=1920 out.mkv" {
		t.Fatalf("unexpected qsv command: %v", got)
	}

	nvencEncodeOnly := nvenc
	nvencEncodeOnly.GlobalOptions.HWAccel = builder.HWAccel{Family: hwaccel.NVENC}
	got = NewGenerator("ffmpeg", registry).Generate(nvencEncodeOnly)
	if strings.Join(got, " ") != "ffmpeg -n -i in.mkv -c:v hevc_nvenc -cq 28 -vf scale=w=1920 out.mkv" {
		t.Fatalf("system memory frames must use the software scaler: %v", got)
	}

	vaapiDecode := base
	vaapiDecode.VideoCodec = builder.VideoCodec{Codec: "h264_vaapi"}
	vaapiDecode.GlobalOptions.HWAccel = builder.HWAccel{Family: hwaccel.VAAPI, Decode: true}
	got = NewGenerator("ffmpeg", registry).Generate(vaapiDecode)
	if i := indexOf(got, "-vf"); i < 0 || got[i+1] != "scale_vaapi=w=1920" {
		t.Fatalf("hardware decode should skip the upload prefix: %v", got)
	}

	vaapiBare := base
	vaapiBare.VideoFilters = nil
	vaapiBare.VideoCodec = builder.VideoCodec{Codec: "h264_vaapi"}
	vaapiBare.GlobalOptions.HWAccel = builder.HWAccel{Family: hwaccel.VAAPI}
	got = NewGenerator("ffmpeg", registry).Generate(vaapiBare)
	if i := indexOf(got, "-vf"); i < 0 || got[i+1] != "format=nv12,hwupload" {
		t.Fatalf("vaapi encode should always upload: %v", got)
	}

	software := base
	software.VideoCodec = builder.VideoCodec{Codec: "libx264", Bitrate: "3M"}
	got = NewGenerator("ffmpeg", registry).Generate(software)
	if strings.Join(got, " ") != "ffmpeg -n -i in.mkv -c:v libx264 -b:v 3M -vf scale=w=1920 out.mkv" {
		t.Fatalf("unexpected software command: %v", got)
	}
}

func TestSegmentedOutputOptions(t *testing.T) {
	state := builder.State{
		Inputs:     []builder.Input{{Kind: builder.InputPipe}},
		Output:     builder.Output{Path: "live/index.m3u8", SegmentDuration: 6, PlaylistType: "VOD", SegmentFilename: "live/seg_%03d.ts"},
		VideoCodec: builder.VideoCodec{Codec: "libx264", CRF: intPtr(21)},
		AudioCodec: builder.AudioCodec{Codec: "aac"},
	}
	got := NewGenerator("ffmpeg", nil).Generate(state)
	want := []string{
		"ffmpeg", "-n", "-i", "pipe:0", "-c:v", "libx264", "-crf", "21", "-c:a", "aac",
		"-hls_time", "6", "-hls_playlist_type", "vod", "-hls_segment_filename", "live/seg_%03d.ts",
		"live/index.m3u8",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateIncompleteState(t *testing.T) {
	got := NewGenerator("ffmpeg", nil).Generate(builder.State{})
	if !reflect.DeepEqual(got, []string{"ffmpeg", "-n", ""}) {
		t.Fatalf("unexpected preview for empty state: %v", got)
	}
}

func TestRenderFilterVariants(t *testing.T) {
	tests := []struct {
		filter builder.Filter
		want   string
	}{
		{builder.Filter{Type: "crop", Params: map[string]any{"width": 640, "height": 360, "x": 10}}, "crop=w=640:h=360:x=10"},
		{builder.Filter{Type: "transpose"}, "transpose=1"},
		{builder.Filter{Type: "deinterlace"}, "yadif"},
		{builder.Filter{Type: "sharpen", Params: map[string]any{"amount": 1.2}}, "unsharp=5:5:1.2"},
		{builder.Filter{Type: "drawtext", Params: map[string]any{"text": "Live: now", "font_size": 24}}, `drawtext=text='Live\: now':fontsize=24`},
		{builder.Filter{Type: "custom", Params: map[string]any{"raw": "eq=brightness=0.06"}}, "eq=brightness=0.06"},
		{builder.Filter{Type: "loudnorm", Params: map[string]any{"integrated": -16, "true_peak": -1.5}}, "loudnorm=I=-16:TP=-1.5"},
		{builder.Filter{Type: "highpass", Params: map[string]any{"frequency": 200}}, "highpass=f=200"},
		{builder.Filter{Type: "acompressor", Params: map[string]any{"ratio": 4, "attack": 20}}, "acompressor=attack=20:ratio=4"},
	}
	for _, tt := range tests {
		if got := renderFilter(tt.filter, hwaccel.Family{}); got != tt.want {
			t.Errorf("renderFilter(%s) = %q, want %q", tt.filter.Type, got, tt.want)
		}
	}
}

func TestFormatQuotesForShell(t *testing.T) {
	got := Format([]string{"ffmpeg", "-i", "my file.mkv", "-metadata", "title=It's", "-vf", "scale=w=1280:h=-2", ""})
	want := `ffmpeg -i 'my file.mkv' -metadata 'title=It'\''s' -vf scale=w=1280:h=-2 ''`
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestMappingLanguageNormalized(t *testing.T) {
	state := builder.State{
		Inputs:     []builder.Input{{Path: "in.mkv"}},
		Output:     builder.Output{Path: "out.mkv"},
		VideoCodec: builder.VideoCodec{Codec: "copy"},
		AudioCodec: builder.AudioCodec{Codec: "copy"},
		GlobalOptions: builder.GlobalOptions{Overwrite: true},
		StreamMappings: []builder.StreamMapping{
			{InputIndex: 0, StreamType: builder.StreamAudio, StreamIndex: 0, OutputIndex: 0, Language: "en"},
			{InputIndex: 0, StreamType: builder.StreamAudio, StreamIndex: 1, OutputIndex: 1, Language: "FRE"},
		},
	}
	got := strings.Join(NewGenerator("ffmpeg", nil).Generate(state), " ")
	for _, want := range []string{"-metadata:s:a:0 language=eng", "-metadata:s:a:1 language=fra"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestMixedCaseNamesRenderCanonical(t *testing.T) {
	state := builder.State{
		Inputs:     []builder.Input{{Path: "in.mkv"}},
		Output:     builder.Output{Path: "out.mkv"},
		VideoCodec: builder.VideoCodec{Codec: "LIBX264", CRF: intPtr(23)},
		AudioCodec: builder.AudioCodec{Codec: " AAC ", Bitrate: "128k", ChannelLayout: "Stereo"},
		StreamMappings: []builder.StreamMapping{
			{InputIndex: 0, StreamType: "Video", StreamIndex: 0, OutputIndex: 0, Language: "eng"},
		},
	}

	result := validation.New(hwaccel.NewDefaultRegistry()).Validate(state)
	if !result.Valid {
		t.Fatalf("expected mixed-case state to validate, got %+v", result.Errors)
	}

	got := NewGenerator("ffmpeg", nil).Generate(state)
	want := []string{
		"ffmpeg", "-n", "-i", "in.mkv",
		"-map", "0:v:0", "-metadata:s:v:0", "language=eng",
		"-c:v", "libx264", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k", "-ch_layout", "stereo",
		"out.mkv",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
