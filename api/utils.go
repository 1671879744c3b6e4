package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/wrap"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const internalErrorKind = "INTERNAL_ERROR"

// sendError responds with the user-facing message of the apperror.Error in err's chain, and a
// status code for its kind. Errors without a kind are logged, and respond with the given fallback
// message and status 500.
func sendError(res http.ResponseWriter, err error, fallbackMessage string) {
	kind := apperror.KindOf(err)
	message, ok := apperror.Message(err)
	if !ok {
		message = fallbackMessage
	}

	var statusCode int
	switch kind {
	case apperror.KindValidationFailure:
		if errors.Is(err, apperror.ErrRateLimited) {
			statusCode = http.StatusTooManyRequests
		} else {
			statusCode = http.StatusBadRequest
		}
	case apperror.KindUpstreamServiceError:
		statusCode = http.StatusBadGateway
	case apperror.KindDataUnavailable:
		statusCode = http.StatusServiceUnavailable
	default:
		statusCode = http.StatusInternalServerError
	}

	response := errorResponse{Kind: internalErrorKind, Message: message}
	if kind.IsValid() {
		response.Kind = kind.String()
	}

	if statusCode >= 500 {
		log.ErrorCause(err, fallbackMessage)
	} else {
		log.Debugf("%s: %v", fallbackMessage, err)
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if err := json.NewEncoder(res).Encode(response); err != nil {
		log.ErrorCause(err, "failed to serialize error response")
	}
}

func sendClientError(res http.ResponseWriter, err error, message string) {
	if err == nil {
		sendError(res, apperror.Validation(message), message)
	} else {
		sendError(res, apperror.Wrap(err, apperror.KindValidationFailure, message), message)
	}
}

func sendJSON(res http.ResponseWriter, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		sendError(res, wrap.Error(err, "failed to serialize response"), "Something went wrong.")
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(body); err != nil {
		log.ErrorCause(err, "failed to write response")
	}
}

// Request bodies are small JSON selections or form submissions.
const maxJSONBodySize = 1 << 20

func decodeJSON(res http.ResponseWriter, req *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxJSONBodySize))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
