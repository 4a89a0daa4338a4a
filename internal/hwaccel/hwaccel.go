// Package hwaccel describes hardware-acceleration families and the ffmpeg
// flags each one needs.
//
// Families are held in an explicit Registry. Nothing registers on import:
// callers build a registry with NewRegistry and populate it with
// RegisterDefaults (or NewDefaultRegistry) during process start.
package hwaccel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	Software = "software"
	NVENC    = "nvenc"
	QSV      = "qsv"
	VAAPI    = "vaapi"
)

// ErrDuplicateFamily is returned when a family name is registered twice.
var ErrDuplicateFamily = errors.New("hwaccel family already registered")

// Family captures the flag and filter differences of one acceleration family.
type Family struct {
	Name string
	// CodecSuffix identifies the family's encoders (e.g. "_nvenc"). Empty for software.
	CodecSuffix string
	// DefaultDevice is used when the state does not name a device.
	DefaultDevice string
	// DeviceInit builds the device initialisation flags placed before the first input.
	DeviceInit func(device string) []string
	// Decode builds the hardware decode flags placed before the first input.
	Decode func(device string) []string
	// FilterAliases maps generic filter names to family-specific variants.
	FilterAliases map[string]string
	// FilterPrefix is forced onto the front of the video chain when frames
	// must be uploaded to the device before filtering and encoding.
	FilterPrefix []string
	// QualityFlag carries the constant-quality value (CRF equivalent).
	QualityFlag string
	// RequiresUpload reports whether software frames must be uploaded explicitly.
	RequiresUpload bool
}

// DeviceArgs returns the device initialisation flags for device, falling back
// to the family default.
func (f Family) DeviceArgs(device string) []string {
	if f.DeviceInit == nil {
		return nil
	}
	return f.DeviceInit(f.device(device))
}

// DecodeArgs returns the hardware decode flags for device.
func (f Family) DecodeArgs(device string) []string {
	if f.Decode == nil {
		return nil
	}
	return f.Decode(f.device(device))
}

// Alias returns the family-specific name for a generic filter.
func (f Family) Alias(filter string) string {
	if alias, ok := f.FilterAliases[filter]; ok {
		return alias
	}
	return filter
}

// Quality returns the flag used for constant-quality rate control.
func (f Family) Quality() string {
	if f.QualityFlag == "" {
		return "-crf"
	}
	return f.QualityFlag
}

// OwnsCodec reports whether codec is one of the family's encoders.
func (f Family) OwnsCodec(codec string) bool {
	if f.CodecSuffix == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(codec)), f.CodecSuffix)
}

func (f Family) device(device string) string {
	if d := strings.TrimSpace(device); d != "" {
		return d
	}
	return f.DefaultDevice
}

// Registry holds the known acceleration families.
type Registry struct {
	mu       sync.RWMutex
	families map[string]Family
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[string]Family)}
}

// NewDefaultRegistry returns a registry populated with the built-in families.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range defaultFamilies() {
		r.families[f.Name] = f
	}
	return r
}

// Register adds a family. Names are case-insensitive.
func (r *Registry) Register(f Family) error {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	if name == "" {
		return errors.New("hwaccel family name is required")
	}
	f.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.families[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFamily, name)
	}
	r.families[name] = f
	return nil
}

// Lookup returns the named family. An empty name resolves to software.
func (r *Registry) Lookup(name string) (Family, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Software
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[key]
	return f, ok
}

// Names lists registered family names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FamilyForCodec infers the family that owns an encoder. Encoders without a
// hardware suffix belong to software.
func (r *Registry) FamilyForCodec(codec string) (Family, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.families {
		if f.OwnsCodec(codec) {
			return f, true
		}
	}
	f, ok := r.families[Software]
	return f, ok
}

// RegisterDefaults adds the software, nvenc, qsv and vaapi families.
func RegisterDefaults(r *Registry) error {
	for _, f := range defaultFamilies() {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func defaultFamilies() []Family {
	return []Family{
		{
			Name:        Software,
			QualityFlag: "-crf",
		},
		{
			Name:        NVENC,
			CodecSuffix: "_nvenc",
			Decode: func(device string) []string {
				args := []string{"-hwaccel", "cuda", "-hwaccel_output_format", "cuda"}
				if device != "" {
					args = append(args, "-hwaccel_device", device)
				}
				return args
			},
			FilterAliases: map[string]string{"scale": "scale_cuda"},
			QualityFlag:   "-cq",
		},
		{
			Name:        QSV,
			CodecSuffix: "_qsv",
			DeviceInit: func(device string) []string {
				spec := "qsv=hw"
				if device != "" {
					spec += ":" + device
				}
				return []string{"-init_hw_device", spec, "-filter_hw_device", "hw"}
			},
			Decode: func(string) []string {
				return []string{"-hwaccel", "qsv", "-hwaccel_output_format", "qsv"}
			},
			FilterAliases: map[string]string{"scale": "scale_qsv"},
			QualityFlag:   "-global_quality",
		},
		{
			Name:          VAAPI,
			CodecSuffix:   "_vaapi",
			DefaultDevice: "/dev/dri/renderD128",
			DeviceInit: func(device string) []string {
				return []string{"-init_hw_device", "vaapi=va:" + device, "-filter_hw_device", "va"}
			},
			Decode: func(string) []string {
				return []string{"-hwaccel", "vaapi", "-hwaccel_output_format", "vaapi"}
			},
			FilterAliases:  map[string]string{"scale": "scale_vaapi"},
			FilterPrefix:   []string{"format=nv12", "hwupload"},
			QualityFlag:    "-qp",
			RequiresUpload: true,
		},
	}
}
