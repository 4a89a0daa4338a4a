package command

import (
	"sort"
	"strings"

	"ffcraft/internal/builder"
	"ffcraft/internal/hwaccel"
)

// videoChain renders the -vf chain. Copy and none codecs never receive a
// chain. Families that need frames on the device get their upload prefix
// unless hardware decoding already keeps frames there. Device filter aliases
// apply only while frames are on the device; otherwise the software filter
// runs on system memory frames.
func videoChain(state builder.State, hw hwaccel.Family) []string {
	codec := state.VideoCodec.Codec
	if builder.IsCopy(codec) || builder.IsDisabled(codec) {
		return nil
	}
	decode := state.GlobalOptions.HWAccel.Decode
	var chain []string
	if len(hw.FilterPrefix) > 0 && !decode {
		chain = append(chain, hw.FilterPrefix...)
	}
	filterHW := hw
	if !decode && !hw.RequiresUpload {
		filterHW = hwaccel.Family{Name: hw.Name}
	}
	for _, f := range builder.ActiveFilters(state.VideoFilters) {
		if rendered := renderFilter(f, filterHW); rendered != "" {
			chain = append(chain, rendered)
		}
	}
	return chain
}

func audioChain(state builder.State) []string {
	codec := state.AudioCodec.Codec
	if builder.IsCopy(codec) || builder.IsDisabled(codec) {
		return nil
	}
	var chain []string
	for _, f := range builder.ActiveFilters(state.AudioFilters) {
		if rendered := renderFilter(f, hwaccel.Family{}); rendered != "" {
			chain = append(chain, rendered)
		}
	}
	return chain
}

// renderFilter produces one filtergraph entry.
func renderFilter(f builder.Filter, hw hwaccel.Family) string {
	filterType := strings.ToLower(strings.TrimSpace(f.Type))
	name := hw.Alias(builder.FFmpegFilterName(filterType))

	switch filterType {
	case builder.FilterCustom:
		return f.String("raw")
	case "scale":
		return named(name, f, "width:w", "height:h", "flags:flags")
	case "crop":
		return named(name, f, "width:w", "height:h", "x:x", "y:y")
	case "pad":
		return named(name, f, "width:w", "height:h", "x:x", "y:y", "color:color")
	case "fps":
		return positional(name, f, "fps")
	case "transpose":
		if f.String("dir") == "" {
			return name + "=1"
		}
		return positional(name, f, "dir")
	case "hflip", "vflip":
		return name
	case "deinterlace":
		return named(name, f, "mode:mode")
	case "denoise":
		return positional(name, f, "strength")
	case "sharpen":
		if amount := f.String("amount"); amount != "" {
			return name + "=5:5:" + amount
		}
		return name
	case "format":
		return named(name, f, "pix_fmt:pix_fmts")
	case "drawtext":
		entry := name + "=text='" + escapeText(f.String("text")) + "'"
		if rest := named("", f, "font_size:fontsize", "color:fontcolor", "x:x", "y:y"); rest != "" {
			entry += ":" + strings.TrimPrefix(rest, "=")
		}
		return entry
	case "subtitles":
		return name + "=" + escapeText(f.String("path"))
	case "volume":
		return positional(name, f, "volume")
	case "atempo":
		return positional(name, f, "tempo")
	case "aresample":
		return positional(name, f, "sample_rate")
	case "highpass", "lowpass":
		return named(name, f, "frequency:f")
	case "loudnorm":
		return named(name, f, "integrated:I", "true_peak:TP", "range:LRA")
	default:
		return generic(name, f)
	}
}

// named renders name=k1=v1:k2=v2 from "param:option" pairs, skipping absent params.
func named(name string, f builder.Filter, pairs ...string) string {
	var opts []string
	for _, pair := range pairs {
		param, option, _ := strings.Cut(pair, ":")
		if v := f.String(param); v != "" {
			opts = append(opts, option+"="+v)
		}
	}
	if len(opts) == 0 {
		return name
	}
	return name + "=" + strings.Join(opts, ":")
}

func positional(name string, f builder.Filter, param string) string {
	if v := f.String(param); v != "" {
		return name + "=" + v
	}
	return name
}

func generic(name string, f builder.Filter) string {
	keys := make([]string, 0, len(f.Params))
	for k := range f.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var opts []string
	for _, k := range keys {
		if v := f.String(k); v != "" {
			opts = append(opts, k+"="+v)
		}
	}
	if len(opts) == 0 {
		return name
	}
	return name + "=" + strings.Join(opts, ":")
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `,`, `\,`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
