package rest

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var indexPage []byte

type IndexHandler interface {
	IndexHandler(w http.ResponseWriter, _ *http.Request)
}

type indexHandler struct{}

func NewIndexHandler() IndexHandler {
	return &indexHandler{}
}

func (that *indexHandler) IndexHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(indexPage); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
