// Package contact validates contact form submissions and forwards them to a webhook.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"hermannm.dev/devlog/log"
	"hermannm.dev/portfolio/apperror"
	"hermannm.dev/wrap"
)

type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validate checks the fields in form order, returning a VALIDATION_FAILURE error for the first
// invalid one.
func (submission Submission) Validate() error {
	if strings.TrimSpace(submission.Name) == "" {
		return apperror.Validation("Please enter your name.")
	}
	if !IsValidEmail(strings.TrimSpace(submission.Email)) {
		return apperror.Validation("Please enter a valid email address.")
	}
	if strings.TrimSpace(submission.Message) == "" {
		return apperror.Validation("Please enter your message.")
	}
	return nil
}

// Client delivers submissions to a webhook, rate-limiting submissions across all visitors.
type Client struct {
	webhookURL string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client allowing one submission per interval, with bursts of up to burst
// submissions. An empty webhook URL gives a client where every submission fails.
func NewClient(webhookURL string, interval time.Duration, burst int) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Submit validates the submission and posts it to the webhook as JSON. Any response status other
// than 200 OK is an UPSTREAM_SERVICE_ERROR. Failed deliveries are not retried.
func (client *Client) Submit(ctx context.Context, submission Submission) error {
	if client.webhookURL == "" {
		return apperror.New(apperror.KindUpstreamServiceError, "WEB_HOOK_URL is not set.")
	}

	if err := submission.Validate(); err != nil {
		return err
	}

	if !client.limiter.Allow() {
		return apperror.RateLimited("Too many messages have been sent recently. Please try again later.")
	}

	submission = Submission{
		Name:    strings.TrimSpace(submission.Name),
		Email:   strings.TrimSpace(submission.Email),
		Message: strings.TrimSpace(submission.Message),
	}

	if err := client.post(ctx, submission); err != nil {
		return apperror.Upstream(err, "Failed to send message. Please try again later.")
	}

	log.Info("contact form submission delivered")
	return nil
}

func (client *Client) post(ctx context.Context, submission Submission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return wrap.Error(err, "failed to encode submission")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.webhookURL, bytes.NewReader(body))
	if err != nil {
		return wrap.Error(err, "failed to create webhook request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return wrap.Error(err, "webhook request failed")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", response.StatusCode, string(responseBody))
	}

	return nil
}
