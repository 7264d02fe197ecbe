package images

import (
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AspectRatio represents a frame aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Defines common aspect ratios for video sources.
const (
	AspectRatio169 AspectRatio = "16:9"
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio54  AspectRatio = "5:4"
	AspectRatio32  AspectRatio = "3:2"
)

// ResolutionType represents the common name of a video resolution.
type ResolutionType string

// Defines the identifier for each supported frame resolution.
const (
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeFWVGA    ResolutionType = "FWVGA"
	ResolutionTypeQHD540   ResolutionType = "qHD 540p"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeWXGA     ResolutionType = "WXGA"
	ResolutionTypeHDPlus   ResolutionType = "HD+"
	ResolutionType1MP54    ResolutionType = "1MP (5:4)"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionType2MP43    ResolutionType = "2MP (4:3)"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType3MP43    ResolutionType = "3MP (4:3)"
	ResolutionType6MP32    ResolutionType = "6MP (3:2)"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// DefaultResolution is the working size frames are scaled to before
// detection.
const DefaultResolution = ResolutionTypeHD720p

// ErrUnknownResolution is returned by LookupResolution for unknown names.
var ErrUnknownResolution = errors.New("unknown resolution")

// Resolution describes a named frame size.
type Resolution struct {
	Name        ResolutionType `json:"name" yaml:"name"`
	AspectRatio AspectRatio    `json:"aspectRatio" yaml:"aspect_ratio"`
	Width       int            `json:"width" yaml:"width"`
	Height      int            `json:"height" yaml:"height"`
}

// Size returns the resolution as an image.Point.
func (r Resolution) Size() image.Point {
	return image.Pt(r.Width, r.Height)
}

// MegaPixels returns the pixel count in millions, rounded to two decimals
// (e.g., 0.92 for 720p).
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

var resolutions = []Resolution{
	{ResolutionTypeNHD, AspectRatio169, 640, 360},
	{ResolutionTypeVGA, AspectRatio43, 640, 480},
	{ResolutionTypeFWVGA, AspectRatio169, 854, 480},
	{ResolutionTypeQHD540, AspectRatio169, 960, 540},
	{ResolutionTypeHD720p, AspectRatio169, 1280, 720},
	{ResolutionType1MP54, AspectRatio54, 1280, 1024},
	{ResolutionTypeWXGA, AspectRatio169, 1366, 768},
	{ResolutionTypeHDPlus, AspectRatio169, 1600, 900},
	{ResolutionType2MP43, AspectRatio43, 1600, 1200},
	{ResolutionTypeFHD1080p, AspectRatio169, 1920, 1080},
	{ResolutionType3MP43, AspectRatio43, 2048, 1536},
	{ResolutionTypeQHD1440p, AspectRatio169, 2560, 1440},
	{ResolutionType6MP32, AspectRatio32, 3072, 2048},
	{ResolutionType4KUHD, AspectRatio169, 3840, 2160},
}

// Resolutions returns every known resolution ordered by pixel count.
func Resolutions() []Resolution {
	out := append([]Resolution(nil), resolutions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Width*out[i].Height < out[j].Width*out[j].Height
	})
	return out
}

// LookupResolution finds a resolution by name, ignoring case and surrounding
// space. Shorthands such as "720p", "1080p" and "4k" are accepted.
//
// Arguments:
// - name: The resolution name.
//
// Returns:
// - Resolution: The matching resolution.
// - error: ErrUnknownResolution if nothing matches.
//
// @example
// res, err := LookupResolution("HD 720p") // 1280x720
func LookupResolution(name string) (Resolution, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "720p":
		key = strings.ToLower(string(ResolutionTypeHD720p))
	case "1080p":
		key = strings.ToLower(string(ResolutionTypeFHD1080p))
	case "1440p":
		key = strings.ToLower(string(ResolutionTypeQHD1440p))
	case "4k", "2160p":
		key = strings.ToLower(string(ResolutionType4KUHD))
	}

	for _, r := range resolutions {
		if strings.ToLower(string(r.Name)) == key {
			return r, nil
		}
	}
	return Resolution{}, errors.Wrapf(ErrUnknownResolution, "%q", name)
}
