package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"hermannm.dev/portfolio/apperror"
)

var validSubmission = Submission{Name: "Ada", Email: "ada@example.com", Message: "Hello!"}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name       string
		submission Submission
		valid      bool
	}{
		{"valid", validSubmission, true},
		{"blank name", Submission{Name: "  ", Email: "ada@example.com", Message: "Hi"}, false},
		{"blank email", Submission{Name: "Ada", Message: "Hi"}, false},
		{"malformed email", Submission{Name: "Ada", Email: "ada@example", Message: "Hi"}, false},
		{"email with spaces", Submission{Name: "Ada", Email: "a da@example.com", Message: "Hi"}, false},
		{"blank message", Submission{Name: "Ada", Email: "ada@example.com"}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := test.submission.Validate()
			if test.valid && err != nil {
				t.Fatalf("expected valid submission, got %v", err)
			}
			if !test.valid && !apperror.Is(err, apperror.KindValidationFailure) {
				t.Fatalf("expected VALIDATION_FAILURE error, got %v", err)
			}
		})
	}
}

func TestSubmitPostsJSON(t *testing.T) {
	var received Submission
	server := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || req.Header.Get("Content-Type") != "application/json" {
			res.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(req.Body).Decode(&received); err != nil {
			res.WriteHeader(http.StatusBadRequest)
			return
		}
		res.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute, 5)
	if err := client.Submit(context.Background(), validSubmission); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(validSubmission, received); diff != "" {
		t.Errorf("unexpected webhook payload (-want +got):\n%s", diff)
	}
}

func TestSubmitSurfacesWebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		res.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewClient(server.URL, time.Minute, 5).Submit(context.Background(), validSubmission)
	if !apperror.Is(err, apperror.KindUpstreamServiceError) {
		t.Fatalf("expected UPSTREAM_SERVICE_ERROR, got %v", err)
	}
}

func TestSubmitWithoutWebhook(t *testing.T) {
	err := NewClient("", time.Minute, 5).Submit(context.Background(), validSubmission)
	if !apperror.Is(err, apperror.KindUpstreamServiceError) {
		t.Fatalf("expected UPSTREAM_SERVICE_ERROR, got %v", err)
	}
}

func TestSubmitIsRateLimited(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		requests++
		res.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Hour, 2)
	for i := 0; i < 2; i++ {
		if err := client.Submit(context.Background(), validSubmission); err != nil {
			t.Fatal(err)
		}
	}

	err := client.Submit(context.Background(), validSubmission)
	if !errors.Is(err, apperror.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 webhook requests, got %d", requests)
	}
}

func TestInvalidSubmissionDoesNotUseRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		res.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Hour, 1)
	if err := client.Submit(context.Background(), Submission{Name: "Ada"}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := client.Submit(context.Background(), validSubmission); err != nil {
		t.Fatalf("expected valid submission to be accepted, got %v", err)
	}
}
