package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
	router     *mux.Router
}

func NewServer(address string) *Server {
	srv := &http.Server{
		Addr:         address,
		WriteTimeout: 90 * time.Second,
		ReadTimeout:  90 * time.Second,
	}
	apiServer := &Server{
		httpServer: srv,
	}
	apiServer.router = mux.NewRouter()
	apiServer.httpServer.Handler = apiServer.router
	return apiServer
}

func (w *Server) Handler() http.Handler {
	return w.router
}

// ListenAndServe blocks until the server is shut down.
func (w *Server) ListenAndServe() error {
	log.Infof("[api] Server started at %s", w.httpServer.Addr)
	err := w.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (w *Server) Shutdown(ctx context.Context) error {
	return w.httpServer.Shutdown(ctx)
}

func (w *Server) AppendAuthorizedRoute(path string, tokens TokenStore, handler func(http.ResponseWriter, *http.Request), methods ...string) {
	r := w.router.HandleFunc(path, LoggingMiddleware("API", AuthorizationMiddleware(tokens, handler)))
	if len(methods) > 0 {
		r.Methods(methods...)
	}
}

func (w *Server) AppendRoute(path string, handler func(http.ResponseWriter, *http.Request), methods ...string) {
	r := w.router.HandleFunc(path, LoggingMiddleware("API", handler))
	if len(methods) > 0 {
		r.Methods(methods...)
	}
}

func WriteResponse(writer http.ResponseWriter, response interface{}) error {
	jsonResponse, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return WriteRaw(writer, http.StatusOK, jsonResponse)
}

func WriteRaw(writer http.ResponseWriter, status int, body []byte) error {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_, err := writer.Write(body)
	return err
}
