package printing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	reimbapp "github.com/reimburse/backend/internal/application/reimbursement"
)

const (
	defaultMaxImageSize = 1600
	jpegQuality         = 85
)

var _ reimbapp.ImageNormalizer = (*ImageNormalizer)(nil)

// ErrUnsupportedImage is returned for data that no registered decoder understands
var ErrUnsupportedImage = errors.New("unsupported image format")

// ImageNormalizer shrinks receipt images so reports stay printable.
// PNG and GIF sources are re-encoded as PNG to keep transparency, everything else as JPEG.
type ImageNormalizer struct {
	maxSize int
}

// NewImageNormalizer creates a normalizer bounding both sides to maxSize pixels
func NewImageNormalizer(maxSize int) *ImageNormalizer {
	if maxSize <= 0 {
		maxSize = defaultMaxImageSize
	}
	return &ImageNormalizer{maxSize: maxSize}
}

// Normalize decodes data, fits it into the bounding box and re-encodes it
func (n *ImageNormalizer) Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	sniffed := http.DetectContentType(data)

	var (
		img image.Image
		err error
	)
	switch sniffed {
	case "image/webp":
		img, err = webp.Decode(bytes.NewReader(data))
	case "image/jpeg", "image/png", "image/gif", "image/bmp":
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, sniffed)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > n.maxSize || b.Dy() > n.maxSize {
		img = imaging.Fit(img, n.maxSize, n.maxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if sniffed == "image/png" || sniffed == "image/gif" {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
