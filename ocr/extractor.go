package ocr

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
)

const Prompt = "Extract text from the image:"

type Extractor interface {
	Extract(ctx context.Context, image Image) (string, error)
}

// GeminiExtractor extracts text with a Gemini model through the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor fails with an UPSTREAM_SERVICE_ERROR if the API key or model name is missing.
func NewGeminiExtractor(ctx context.Context, apiKey string, model string) (*GeminiExtractor, error) {
	if model == "" {
		return nil, apperror.New(apperror.KindUpstreamServiceError, "Model name is missing in configuration.")
	}
	if apiKey == "" {
		return nil, apperror.New(apperror.KindUpstreamServiceError, "Gemini API key is missing in configuration.")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperror.Upstream(err, "Error loading model.")
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract sends the image followed by the extraction prompt, and returns the model's text
// response. Failures are UPSTREAM_SERVICE_ERRORs, and are not retried.
func (extractor *GeminiExtractor) Extract(ctx context.Context, image Image) (string, error) {
	if err := image.Validate(); err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromBytes(image.Data, image.ContentType),
				genai.NewPartFromText("\n\n"),
				genai.NewPartFromText(Prompt),
			},
			genai.RoleUser,
		),
	}

	response, err := extractor.client.Models.GenerateContent(ctx, extractor.model, contents, nil)
	if err != nil {
		return "", apperror.Upstream(err, "Error extracting text.")
	}

	text := response.Text()
	if strings.TrimSpace(text) == "" {
		return "", apperror.Upstream(errors.New("empty model response"), "Error extracting text.")
	}

	log.Debugf("extracted %d characters of text from image '%s'", len(text), image.Name)
	return text, nil
}
