package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/kit"
)

// NewRouter returns an http.Handler with all game API routes.
func NewRouter(svc *game.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		eps: newEndpoints(svc, func(name string) kit.Middleware { return kit.Logging(logger, name) }),
		svc: svc,
	}

	mux.HandleFunc("GET /v1/dataset", h.handleDataset)
	mux.HandleFunc("POST /v1/dataset/year", h.handleSetYear)
	mux.HandleFunc("POST /v1/dataset/family", h.handleSwitchFamily)
	mux.HandleFunc("GET /v1/round", h.handleRound)
	mux.HandleFunc("GET /v1/guess", methodNotAllowed)
	mux.HandleFunc("POST /v1/guess", h.handleGuess)
	mux.HandleFunc("GET /v1/guesses/{key}", h.handleGuesses)
	mux.HandleFunc("GET /v1/suggestions", h.handleSuggestions)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestID(mux))
}

type handler struct {
	eps endpoints
	svc *game.Service
}

// --- dataset ---

func (h *handler) handleDataset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.datasetInfo(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type httpSetYearRequest struct {
	Year    int    `json:"year"`
	Economy string `json:"economy,omitempty"`
}

func (h *handler) handleSetYear(w http.ResponseWriter, r *http.Request) {
	var req httpSetYearRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.eps.setYear(r.Context(), &setYearReq{Year: req.Year, Economy: req.Economy})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type httpSwitchFamilyRequest struct {
	Family string `json:"family"`
}

func (h *handler) handleSwitchFamily(w http.ResponseWriter, r *http.Request) {
	var req httpSwitchFamilyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.eps.switchFamily(r.Context(), &switchFamilyReq{Family: req.Family})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- round ---

func (h *handler) handleRound(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	practice, _ := strconv.ParseBool(q.Get("practice"))
	resp, err := h.eps.round(r.Context(), &roundReq{Key: q.Get("key"), Practice: practice})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type httpGuessRequest struct {
	Key   string `json:"key,omitempty"`
	Guess string `json:"guess"`
}

func (h *handler) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req httpGuessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Guess == "" {
		writeError(w, http.StatusBadRequest, "missing guess")
		return
	}
	resp, err := h.eps.guess(r.Context(), &guessReq{Key: req.Key, Input: req.Guess})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *handler) handleGuesses(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.guesses(r.Context(), &guessesReq{Key: r.PathValue("key")})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- suggestions ---

func (h *handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	resp, err := h.eps.suggestions(r.Context(), &suggestionsReq{Query: q.Get("q"), Limit: limit})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Source   string `json:"source"`
	Year     int    `json:"year"`
	Profiles int    `json:"profiles"`
	Advisory string `json:"advisory,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	v := h.svc.Dataset()
	status := "ok"
	if v.Advisory != "" {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   status,
		Source:   v.Source.String(),
		Year:     v.SelectedYear,
		Profiles: len(v.Dataset.Profiles),
		Advisory: v.Advisory,
	})
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps game errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrUnknownGuess):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrDuplicateGuess), errors.Is(err, game.ErrRoundSolved):
		code = http.StatusConflict
	case errors.Is(err, game.ErrUnknownFamily):
		code = http.StatusNotFound
	case errors.Is(err, game.ErrNoTarget):
		code = http.StatusServiceUnavailable
	}
	writeError(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID tags each request with the caller's X-Request-ID or a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
