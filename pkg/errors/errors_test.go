package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrNoFileProvided, http.StatusBadRequest},
		{ErrUnsupportedFileType, http.StatusBadRequest},
		{ErrEmptyQuery, http.StatusBadRequest},
		{ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrDocumentNotFound, http.StatusNotFound},
		{ErrArchiveUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrEmptyQuery), http.StatusBadRequest},
	}

	for _, tt := range tests {
		if got := HTTPStatusCode(tt.err); got != tt.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestAppErrorOverridesSentinelMapping(t *testing.T) {
	err := New(ErrEmptyQuery, http.StatusTeapot, "custom status")
	if got := HTTPStatusCode(err); got != http.StatusTeapot {
		t.Errorf("HTTPStatusCode = %d, want the AppError's own status", got)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrUnsupportedFileType, http.StatusBadRequest, "got %s", ".pdf")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Error("AppError should unwrap to its sentinel")
	}
	if err.Error() != "unsupported file type: got .pdf" {
		t.Errorf("Error() = %q", err.Error())
	}
}
