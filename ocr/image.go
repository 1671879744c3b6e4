// Package ocr extracts text from uploaded images using a generative AI model.
package ocr

import (
	"mime"
	"net/http"
	"slices"
	"strings"

	"hermannm.dev/portfolio/apperror"
)

const MaxImageSize = 5 * 1024 * 1024

const TooLargeMessage = "The file size is too large. Please upload a file smaller than 5 MB."

var AcceptedTypes = []string{"image/jpeg", "image/png", "image/webp"}

type Image struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// NewImage uses the declared content type if there is one, and otherwise sniffs it from the data.
func NewImage(name string, declaredType string, data []byte) Image {
	contentType := ""
	if declaredType != "" {
		if mediaType, _, err := mime.ParseMediaType(declaredType); err == nil {
			contentType = mediaType
		}
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, _, _ = strings.Cut(http.DetectContentType(data), ";")
	}

	return Image{Name: name, ContentType: contentType, Data: data}
}

func (image Image) Validate() error {
	if len(image.Data) == 0 {
		return apperror.Validation("Please upload an image.")
	}
	if len(image.Data) > MaxImageSize {
		return apperror.Validation(TooLargeMessage)
	}
	if !slices.Contains(AcceptedTypes, image.ContentType) {
		return apperror.Validation("The file type is not supported. Please upload a JPG, PNG, or WEBP image.")
	}
	return nil
}
