package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pingHandler struct{}

func NewPingHandler() PingHandler {
	return &pingHandler{}
}

// PingHandler answers the health check and echoes the request id header.
func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		w.Header().Set(middleware.RequestIDHeader, reqID)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
