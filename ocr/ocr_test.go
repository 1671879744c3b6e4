package ocr

import (
	"bytes"
	"context"
	"testing"

	"hermannm.dev/portfolio/apperror"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func TestNewImageContentType(t *testing.T) {
	for _, test := range []struct {
		name         string
		declaredType string
		data         []byte
		want         string
	}{
		{"declared", "image/webp", []byte("RIFF"), "image/webp"},
		{"declared with parameters", "image/jpeg; charset=binary", []byte{0xFF}, "image/jpeg"},
		{"sniffed", "", pngHeader, "image/png"},
		{"sniffed octet stream", "application/octet-stream", pngHeader, "image/png"},
	} {
		t.Run(test.name, func(t *testing.T) {
			image := NewImage("upload", test.declaredType, test.data)
			if image.ContentType != test.want {
				t.Errorf("expected content type '%s', got '%s'", test.want, image.ContentType)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name  string
		image Image
		valid bool
	}{
		{"png", Image{ContentType: "image/png", Data: pngHeader}, true},
		{"max size", Image{ContentType: "image/jpeg", Data: make([]byte, MaxImageSize)}, true},
		{"too large", Image{ContentType: "image/jpeg", Data: make([]byte, MaxImageSize+1)}, false},
		{"unsupported type", Image{ContentType: "image/gif", Data: []byte("GIF89a")}, false},
		{"empty", Image{ContentType: "image/png"}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.image.Validate()
			if test.valid && err != nil {
				t.Fatalf("expected valid image, got %v", err)
			}
			if !test.valid && !apperror.Is(err, apperror.KindValidationFailure) {
				t.Fatalf("expected VALIDATION_FAILURE error, got %v", err)
			}
		})
	}
}

func TestNewGeminiExtractorRequiresConfiguration(t *testing.T) {
	if _, err := NewGeminiExtractor(context.Background(), "key", ""); !apperror.Is(
		err,
		apperror.KindUpstreamServiceError,
	) {
		t.Errorf("expected UPSTREAM_SERVICE_ERROR for missing model, got %v", err)
	}
	if _, err := NewGeminiExtractor(context.Background(), "", "gemini-1.5-flash"); !apperror.Is(
		err,
		apperror.KindUpstreamServiceError,
	) {
		t.Errorf("expected UPSTREAM_SERVICE_ERROR for missing API key, got %v", err)
	}
}

func TestExtractRejectsInvalidImage(t *testing.T) {
	extractor := &GeminiExtractor{model: "gemini-1.5-flash"}

	_, err := extractor.Extract(context.Background(), NewImage("notes.txt", "text/plain", bytes.Repeat([]byte("a"), 10)))
	if !apperror.Is(err, apperror.KindValidationFailure) {
		t.Fatalf("expected VALIDATION_FAILURE error, got %v", err)
	}
}
