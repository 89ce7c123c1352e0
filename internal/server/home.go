package server

import (
	_ "embed"
	"net/http"
)

//go:embed home.html
var homePage []byte

// Home serves the embedded upload/search page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(homePage); err != nil {
		h.logger.Error("failed to write home page", "error", err)
	}
}
