package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zarvd/khaithi-translator/internal/fault"
)

const maxRequestSize = 1 << 20

// Translator is the operation behind the inbound translation routes.
type Translator interface {
	Translate(ctx context.Context, chineseText string) (string, error)
}

type translateRequest struct {
	ChineseText string `json:"chineseText"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type HTTPServer struct {
	logger     *slog.Logger
	translator Translator
}

func NewHTTPServer(logger *slog.Logger, translator Translator) *HTTPServer {
	return &HTTPServer{
		logger:     logger,
		translator: translator,
	}
}

// Handler routes both deployment paths to the same translation handler.
func (svr *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/translate", svr.translate).Methods(http.MethodPost)
	r.HandleFunc("/translate", svr.translate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", svr.healthz).Methods(http.MethodGet)
	return r
}

func (svr *HTTPServer) translate(w http.ResponseWriter, r *http.Request) {
	logger := svr.logger.With(slog.String("method", "translate"), slog.String("path", r.URL.Path))

	var req translateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		logger.Warn("failed to decode request body", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Request body must be JSON with a chineseText field."})
		return
	}

	translation, err := svr.translator.Translate(r.Context(), req.ChineseText)
	if err != nil {
		writeJSON(w, fault.HTTPStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{Translation: translation})
}

func (svr *HTTPServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
