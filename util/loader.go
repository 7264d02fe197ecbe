// Package util - File system helpers for frame sequences.
package util

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoFrameNumber is returned for image files whose name does not end in a
// frame number.
var ErrNoFrameNumber = errors.New("file name has no frame number")

// frameNumber matches the trailing digits of names such as "frame-12",
// "frame_0012" or "0012".
var frameNumber = regexp.MustCompile(`(\d+)$`)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
}

// SupportedExtension reports whether name has an image extension the
// frame loaders understand.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// ParseFrameNumber extracts the frame number from a file name.
//
// @example
// n, _ := ParseFrameNumber("frames/frame_0042.png") // 42
func ParseFrameNumber(name string) (int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	m := frameNumber.FindStringSubmatch(stem)
	if m == nil {
		return 0, errors.Wrapf(ErrNoFrameNumber, "%q", base)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.Wrapf(err, "parse frame number of %q", base)
	}
	return n, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are ordered by the frame number at the end of their name, then by
// name. Subdirectories and files without an image extension are ignored.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if listing or reading fails, or if an image name has no frame number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read frame directory")
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !SupportedExtension(file.Name()) {
			continue
		}

		frame, err := ParseFrameNumber(file.Name())
		if err != nil {
			return nil, err
		}

		imgPath := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrap(err, "read frame file")
		}

		images = append(images, ImageFile{
			Path:  imgPath,
			Data:  data,
			Frame: frame,
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Frame != images[j].Frame {
			return images[i].Frame < images[j].Frame
		}
		return images[i].Path < images[j].Path
	})

	return images, nil
}
