// Package dataset - Image corpus loading.
package dataset

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from the file name.
	Frame int
}

// LoadImageDir reads all image files from a directory, ordered by the frame
// number embedded in each file name.
//
// File names carrying a trailing digit run before the extension, like
// frame-0042.jpg or img12.png, sort by that number. Files without one fall
// back to name order after the numbered ones.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
//   - error: Error if loading fails.
func LoadImageDir(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading image directory %s", dir)
	}

	var images []ImageFile
	unnumbered := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, errors.Wrapf(readErr, "reading image %s", imgPath)
			}

			frame, ok := frameNumber(file.Name())
			if !ok {
				// Directory listings come back name-sorted, so appending
				// past the numbered range preserves a stable order.
				frame = 1 << 30
				frame += unnumbered
				unnumbered++
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frame,
			})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Frame < images[j].Frame
	})

	return images, nil
}

// frameNumber extracts the trailing digit run of a file name, without its
// extension.
func frameNumber(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return 0, false
	}
	n, err := strconv.Atoi(base[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Decode parses the raw bytes of an image file. JPEG and PNG are
// registered; other formats return the underlying image package error.
func (f ImageFile) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding image %s", f.Path)
	}
	return img, nil
}

// Name returns the base file name of the image, the key annotation sets
// index frames by.
func (f ImageFile) Name() string {
	return filepath.Base(f.Path)
}
