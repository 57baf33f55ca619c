package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "football-sync"
)

// envelope follows the Google JSON style guide: exactly one of data or error
// is set.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status"`
	Errors  []errorItem `json:"errors,omitempty"`
}

type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

// errorClasses is checked in order; the first mark found on the error wins.
var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "databaseUnavailable", "UNAVAILABLE"},
	{usecase.ErrQuotaExhausted, http.StatusTooManyRequests, "providerQuotaExhausted", "RESOURCE_EXHAUSTED"},
	{usecase.ErrRateLimited, http.StatusTooManyRequests, "providerRateLimited", "RESOURCE_EXHAUSTED"},
	{usecase.ErrProviderForbidden, http.StatusBadGateway, "providerForbidden", "FAILED_PRECONDITION"},
	{usecase.ErrProviderTransient, http.StatusBadGateway, "providerUnavailable", "UNAVAILABLE"},
}

var internalClass = errorClass{httpStatus: http.StatusInternalServerError, reason: "internalError", status: "INTERNAL"}

func classify(err error) errorClass {
	for _, c := range errorClasses {
		if crerr.Is(err, c.target) {
			return c
		}
	}
	return internalClass
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeError renders err with the class of its first known mark. Unclassified
// errors are reported without their message.
func writeError(_ context.Context, w http.ResponseWriter, err error) {
	class := classify(err)
	msg := "internal server error"
	if class.target != nil {
		msg = err.Error()
	}
	writeErrorBody(w, class, msg)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeErrorBody(w, internalClass, "internal server error")
}

func writeErrorBody(w http.ResponseWriter, class errorClass, msg string) {
	writeJSON(w, class.httpStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    class.httpStatus,
			Message: msg,
			Status:  class.status,
			Errors:  []errorItem{{Domain: errorDomain, Reason: class.reason, Message: msg}},
		},
	})
}
