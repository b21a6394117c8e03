// Package imaging prepares invoice and receipt uploads before they are
// forwarded to the stock API.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/erazemk/stockmgtr/internal/model"
)

// MaxDimension is the maximum width or height of forwarded photos.
const MaxDimension = 2000

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 10 << 20

var (
	// ErrUnsupported is returned for anything but PDF, JPEG and PNG.
	ErrUnsupported = errors.New("unsupported file type (PDF, JPEG and PNG accepted)")
	// ErrTooLarge is returned for uploads over MaxUploadSize.
	ErrTooLarge = errors.New("file is larger than 10 MB")
)

// Prepare reads an upload and returns it ready to forward. The type is
// sniffed from the bytes, not taken from the client. PDFs pass through
// unchanged; photos are downscaled and re-encoded as JPEG.
func Prepare(filename string, r io.Reader) (*model.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	switch detected := http.DetectContentType(data); detected {
	case "application/pdf":
		return &model.Attachment{Filename: filepath.Base(filename), ContentType: detected, Data: data}, nil
	case "image/jpeg", "image/png":
		out, err := recompress(data)
		if err != nil {
			return nil, err
		}
		return &model.Attachment{Filename: jpegName(filename), ContentType: "image/jpeg", Data: out}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}
}

func recompress(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func jpegName(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// downscale resizes img so neither dimension exceeds maxDim, keeping the
// aspect ratio. Images already within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(h*maxDim/w, 1)
	} else {
		newW = max(w*maxDim/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
