package api

import (
	"net/http"

	"hermannm.dev/portfolio/contact"
)

type contactResponse struct {
	Message string `json:"message"`
}

func (api PortfolioAPI) SubmitContactForm(res http.ResponseWriter, req *http.Request) {
	var submission contact.Submission
	if err := decodeJSON(res, req, &submission); err != nil {
		sendClientError(res, err, "Failed to parse contact form.")
		return
	}

	if err := api.contact.Submit(req.Context(), submission); err != nil {
		sendError(res, err, "Failed to send your message.")
		return
	}

	sendJSON(res, contactResponse{Message: "Message sent successfully."})
}
