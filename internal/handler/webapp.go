package handler

import (
	"net/http"

	"github.com/ybhrdwj/mittens-bot/internal/webapp"
)

type WebAppHandler struct{}

func NewWebAppHandler() *WebAppHandler {
	return &WebAppHandler{}
}

// Page serves the embedded mini-app page that Telegram opens inside the
// chat.
func (h *WebAppHandler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(webapp.Page)
}
