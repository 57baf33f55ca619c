package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestClassify_ProviderMarks(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{name: "quota", err: fmt.Errorf("football-data: %w", usecase.ErrQuotaExhausted), code: http.StatusTooManyRequests, reason: "providerQuotaExhausted"},
		{name: "rate limited", err: fmt.Errorf("api-football: %w", usecase.ErrRateLimited), code: http.StatusTooManyRequests, reason: "providerRateLimited"},
		{name: "forbidden", err: fmt.Errorf("competition CLI: %w", usecase.ErrProviderForbidden), code: http.StatusBadGateway, reason: "providerForbidden"},
		{name: "transient", err: fmt.Errorf("bad gateway: %w", usecase.ErrProviderTransient), code: http.StatusBadGateway, reason: "providerUnavailable"},
		{name: "database", err: fmt.Errorf("ping: %w", usecase.ErrDependencyUnavailable), code: http.StatusServiceUnavailable, reason: "databaseUnavailable"},
		{name: "unknown", err: errors.New("boom"), code: http.StatusInternalServerError, reason: "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.httpStatus != tt.code || got.reason != tt.reason {
				t.Fatalf("classify(%v)=%d/%s want=%d/%s", tt.err, got.httpStatus, got.reason, tt.code, tt.reason)
			}
		})
	}
}

func TestWriteError_HidesUnclassifiedMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: password authentication failed for user sync"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("unclassified error leaked into response: %s", rec.Body.String())
	}
}
