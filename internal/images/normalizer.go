package images

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pharmarawasy-del/Delala/internal/utils"

	"github.com/adrium/goheif"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const (
	maxDimension   = 1920
	targetBytes    = 1 << 20 // ~1MB upload target
	initialQuality = 85
	minQuality     = 40
)

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// NormalizedFile is the upload-ready representation of a selected image.
type NormalizedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Normalizer converts user-supplied images into a broadly displayable,
// size-bounded form. It never fails: every step falls back to the previous
// representation, so the worst case is uploading the original bytes under a
// fresh name.
type Normalizer struct {
	logger *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

func (n *Normalizer) Normalize(name string, data []byte) NormalizedFile {

	ext := strings.ToLower(filepath.Ext(name))

	// HEIC has no reliable browser support. Convert when possible and keep
	// the original bytes when the decoder rejects the file.
	if ext == ".heic" || ext == ".heif" {
		converted, err := n.convertHEIC(data)
		if err != nil {
			n.logger.WithError(err).WithField("file", name).Warn("heic conversion failed, keeping original")
		} else {
			data = converted
			ext = ".jpg"
		}
	}

	compressed, err := n.compress(data)
	if err != nil {
		n.logger.WithError(err).WithField("file", name).Warn("image compression failed, keeping previous representation")
	} else {
		data = compressed
		ext = ".jpg"
	}

	return NormalizedFile{
		Name:        uploadName(name, ext),
		ContentType: contentTypeFor(ext),
		Data:        data,
	}
}

func (n *Normalizer) convertHEIC(data []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(initialQuality)); err != nil {
		return nil, fmt.Errorf("encode converted heic: %w", err)
	}

	return buf.Bytes(), nil
}

// compress resizes the image so neither dimension exceeds maxDimension and
// re-encodes as JPEG, stepping quality down until the output fits the upload
// target or quality bottoms out.
func (n *Normalizer) compress(data []byte) ([]byte, error) {

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var out []byte
	for quality := initialQuality; quality >= minQuality; quality -= 10 {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
		}

		out = buf.Bytes()
		if len(out) <= targetBytes {
			break
		}
	}

	return out, nil
}

// uploadName builds a collision-resistant storage key in the shape
// <unix-ms>-<suffix>-<sanitized-base><ext>.
func uploadName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = nameSanitizer.ReplaceAllString(base, "")
	if base == "" {
		base = "image"
	}

	return fmt.Sprintf("%d-%s-%s%s", time.Now().UnixMilli(), utils.NanoIDSize(7), base, ext)
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic", ".heif":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
