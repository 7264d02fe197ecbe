package images

import (
	"errors"
	"image"
	"testing"
)

// TestResolution_MegaPixels checks the rounded megapixel values.
func TestResolution_MegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{
			name: "Full HD 1080p",
			res:  Resolution{Width: 1920, Height: 1080},
			// 1920 * 1080 = 2,073,600 -> 2.07 MP
			expected: 2.07,
		},
		{
			name: "HD 720p",
			res:  Resolution{Width: 1280, Height: 720},
			// 1280 * 720 = 921,600 -> 0.92 MP
			expected: 0.92,
		},
		{
			name:     "Zero Height",
			res:      Resolution{Width: 1920},
			expected: 0.0,
		},
		{
			name:     "Negative Width",
			res:      Resolution{Width: -1920, Height: 1080},
			expected: 0.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got := tc.res.MegaPixels()

			// Assert
			if got != tc.expected {
				t.Errorf("expected %.2f MP, but got %.2f MP", tc.expected, got)
			}
		})
	}
}

// TestResolution_String verifies the human-readable string output for a resolution.
func TestResolution_String(t *testing.T) {
	// Arrange
	res, err := LookupResolution("1080p")
	if err != nil {
		t.Fatal(err)
	}
	expected := "Full HD 1080p (1920x1080, 2.07MP)"

	// Act
	got := res.String()

	// Assert
	if got != expected {
		t.Errorf("expected string '%s', but got '%s'", expected, got)
	}
}

// TestLookupResolution validates lookups by name and shorthand.
func TestLookupResolution(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected image.Point
		err      error
	}{
		{"exact name", "HD 720p", image.Pt(1280, 720), nil},
		{"case and space", "  hd 720P ", image.Pt(1280, 720), nil},
		{"shorthand", "4k", image.Pt(3840, 2160), nil},
		{"vga", "VGA", image.Pt(640, 480), nil},
		{"unknown", "HD 721p", image.Point{}, ErrUnknownResolution},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := LookupResolution(tc.input)

			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, but got %v", tc.err, err)
			}
			if res.Size() != tc.expected {
				t.Errorf("expected size %v, but got %v", tc.expected, res.Size())
			}
		})
	}
}

// TestDefaultResolution pins the working frame size.
func TestDefaultResolution(t *testing.T) {
	res, err := LookupResolution(string(DefaultResolution))
	if err != nil {
		t.Fatal(err)
	}
	if res.Size() != image.Pt(1280, 720) {
		t.Errorf("expected 1280x720, but got %v", res.Size())
	}
}

// TestResolutions checks the ordering of the resolution list.
func TestResolutions(t *testing.T) {
	all := Resolutions()
	if len(all) == 0 {
		t.Fatal("expected resolutions")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Width*all[i-1].Height > all[i].Width*all[i].Height {
			t.Errorf("%s sorted after %s", all[i-1].Name, all[i].Name)
		}
	}
}
