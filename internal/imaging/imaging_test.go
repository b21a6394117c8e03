package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestPreparePDFPassesThrough(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	att, err := Prepare("dir/invoice.pdf", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Prepare PDF: %v", err)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", att.ContentType)
	}
	if att.Filename != "invoice.pdf" {
		t.Errorf("expected invoice.pdf, got %s", att.Filename)
	}
	if !bytes.Equal(att.Data, data) {
		t.Error("expected PDF bytes unchanged")
	}
}

func TestPreparePNGBecomesJPEG(t *testing.T) {
	att, err := Prepare("receipt.png", bytes.NewReader(createTestPNG(100, 50)))
	if err != nil {
		t.Fatalf("Prepare PNG: %v", err)
	}
	if att.ContentType != "image/jpeg" || att.Filename != "receipt.jpg" {
		t.Errorf("unexpected attachment %s %s", att.Filename, att.ContentType)
	}
	img, _, err := image.Decode(bytes.NewReader(att.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("small image should not be resized, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPrepareDownscale(t *testing.T) {
	att, err := Prepare("photo.jpeg", bytes.NewReader(createTestJPEG(3000, 750)))
	if err != nil {
		t.Fatalf("Prepare large image: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(att.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != MaxDimension || b.Dy() != 500 {
		t.Errorf("expected %dx500, got %dx%d", MaxDimension, b.Dx(), b.Dy())
	}
}

func TestPrepareRejectsOtherTypes(t *testing.T) {
	_, err := Prepare("notes.txt", strings.NewReader("just some text"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestPrepareRejectsLargeUploads(t *testing.T) {
	data := make([]byte, MaxUploadSize+1)
	copy(data, "%PDF-1.4")
	_, err := Prepare("big.pdf", bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestDownscalePortrait(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 3000))
	got := downscale(img, MaxDimension).Bounds()
	if got.Dy() != MaxDimension || got.Dx() != 666 {
		t.Errorf("expected 666x%d, got %dx%d", MaxDimension, got.Dx(), got.Dy())
	}
}
