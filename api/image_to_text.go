package api

import (
	"errors"
	"io"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/portfolio/ocr"
	"hermannm.dev/portfolio/session"
	"hermannm.dev/wrap"
)

const (
	imageFormField       = "image"
	downloadFileName     = "extracted_text.txt"
	maxMultipartOverhead = 1 << 20
)

type uploadResponse struct {
	Message     string `json:"message"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

type extractResponse struct {
	Text string `json:"text"`
	// True if the text was extracted by an earlier request in the same session.
	Cached bool `json:"cached"`
}

// Expects:
//   - multipart form field 'image': JPG, PNG or WEBP image of at most 5 MB
//
// Stores the image in the visitor's session, replacing any earlier image and extracted text.
func (api PortfolioAPI) UploadImage(res http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(res, req.Body, ocr.MaxImageSize+maxMultipartOverhead)

	file, header, err := req.FormFile(imageFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			sendError(res, apperror.Validation(ocr.TooLargeMessage), ocr.TooLargeMessage)
			return
		}
		sendClientError(res, err, "Please upload an image.")
		return
	}
	defer file.Close()

	// Reads one byte past the limit, so oversized images fail validation instead of being cut
	data, err := io.ReadAll(io.LimitReader(file, ocr.MaxImageSize+1))
	if err != nil {
		sendClientError(res, err, "Failed to read uploaded image.")
		return
	}

	image := ocr.NewImage(header.Filename, header.Header.Get("Content-Type"), data)
	if err := image.Validate(); err != nil {
		sendError(res, err, "Invalid image.")
		return
	}

	sessionID := api.ensureSession(res, req)
	if err := api.sessions.Save(req.Context(), sessionID, session.State{Image: &image}); err != nil {
		sendError(res, wrap.Error(err, "failed to save uploaded image"), "Failed to store the image.")
		return
	}

	sendJSON(res, uploadResponse{
		Message:     "Image uploaded successfully!",
		Name:        image.Name,
		ContentType: image.ContentType,
		Size:        len(image.Data),
	})
}

// Extracts text from the session's uploaded image. The text is stored in the session, and later
// calls return it without calling the model again.
func (api PortfolioAPI) ExtractText(res http.ResponseWriter, req *http.Request) {
	state, err := api.currentState(req)
	if err != nil {
		sendError(res, err, "Failed to load your session.")
		return
	}

	if state.HasExtractedText() {
		sendJSON(res, extractResponse{Text: state.ExtractedText, Cached: true})
		return
	}
	if state.Image == nil {
		sendClientError(res, nil, "Please upload an image first in the 'Upload Image' section.")
		return
	}
	if api.extractor == nil {
		sendError(
			res,
			apperror.Upstream(nil, "Model could not be loaded."),
			"Model could not be loaded.",
		)
		return
	}

	text, err := api.extractor.Extract(req.Context(), *state.Image)
	if err != nil {
		sendError(res, err, "Error extracting text.")
		return
	}

	state.ExtractedText = text
	sessionID, _ := existingSession(req)
	if err := api.sessions.Save(req.Context(), sessionID, state); err != nil {
		// The text was still extracted, so it is returned; it will just be extracted again next time
		log.ErrorCause(err, "failed to save extracted text to session")
	}

	sendJSON(res, extractResponse{Text: text})
}

// Responds with the extracted text as a plain text attachment, then clears the session.
func (api PortfolioAPI) DownloadText(res http.ResponseWriter, req *http.Request) {
	state, err := api.currentState(req)
	if err != nil {
		sendError(res, err, "Failed to load your session.")
		return
	}

	if !state.HasExtractedText() {
		sendClientError(res, nil, "No extracted text available. Please extract text first.")
		return
	}

	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Header().Set("Content-Disposition", `attachment; filename="`+downloadFileName+`"`)
	res.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(res, state.ExtractedText); err != nil {
		log.ErrorCause(err, "failed to write extracted text download")
		return
	}

	sessionID, _ := existingSession(req)
	if err := api.sessions.Delete(req.Context(), sessionID); err != nil {
		log.ErrorCause(err, "failed to clear session after download")
	}
}

// currentState returns the state of the request's session, or an empty state if the request has
// no session.
func (api PortfolioAPI) currentState(req *http.Request) (session.State, error) {
	sessionID, ok := existingSession(req)
	if !ok {
		return session.State{}, nil
	}

	state, _, err := api.sessions.Get(req.Context(), sessionID)
	if err != nil {
		return session.State{}, wrap.Error(err, "failed to get session")
	}
	return state, nil
}
