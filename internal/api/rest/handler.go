package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"finadvisor/internal/domain/advice"
	"finadvisor/internal/domain/profile"
	advicesvc "finadvisor/internal/services/advice"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// AdviceService is what the handlers need from the advice application service
type AdviceService interface {
	Ask(ctx context.Context, req advicesvc.Request) (*advicesvc.Result, error)
	Classify(d advice.Domain, question string) (advice.ClassificationResult, error)
}

var _ AdviceService = (*advicesvc.Service)(nil)

// AdviceRequest is the POST /v1/advice body
type AdviceRequest struct {
	UserID   string                 `json:"user_id,omitempty"`
	Domain   string                 `json:"domain,omitempty"`
	Question string                 `json:"question"`
	Context  *profile.ClientProfile `json:"context,omitempty"`
	Seed     uint64                 `json:"seed,omitempty"`
}

// ClassifyRequest is the POST /v1/classify body
type ClassifyRequest struct {
	Domain   string `json:"domain,omitempty"`
	Question string `json:"question"`
}

// ErrorBody is returned for every non-2xx status
type ErrorBody struct {
	Error string `json:"error"`
}

// Handler serves the advice API
type Handler struct {
	service      AdviceService
	maxBodyBytes int64
	log          *logger.Logger
}

// NewHandler creates the advice API handler
func NewHandler(service AdviceService, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		log:          logger.Get().With("component", "advice_api"),
	}
}

// Register mounts the API routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/advice", h.HandleAdvice)
	mux.HandleFunc("POST /v1/classify", h.HandleClassify)
}

// HandleAdvice answers a question. Any request that decodes and validates
// gets a 200 with a well-formed response, including apologies.
func (h *Handler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	var body AdviceRequest
	if !h.decode(w, r, &body) {
		return
	}

	req := advicesvc.Request{
		RequestID: r.Header.Get("X-Request-ID"),
		Question:  body.Question,
		Context:   body.Context,
		Seed:      body.Seed,
		Source:    "http",
	}
	if body.UserID != "" {
		id, err := uuid.Parse(body.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "user_id must be a UUID")
			return
		}
		req.UserID = id
	}
	if body.Domain != "" {
		d, err := advice.ParseDomain(body.Domain)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Domain = d
	}

	res, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("X-Request-ID", res.RequestID)
	writeJSON(w, http.StatusOK, res.Response.Envelope())
}

// HandleClassify returns the classification only
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var body ClassifyRequest
	if !h.decode(w, r, &body) {
		return
	}

	var d advice.Domain
	if body.Domain != "" {
		parsed, err := advice.ParseDomain(body.Domain)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		d = parsed
	}

	c, err := h.service.Classify(d, body.Question)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		}
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "request body must contain a single JSON object")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, errors.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	default:
		h.log.ErrorWithContext(r.Context(), err, map[string]string{"component": "advice_api", "path": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage lists field errors without internal wrapping text
func validationMessage(err error) string {
	var multi *errors.MultiError
	if errors.As(err, &multi) {
		parts := make([]string, 0, len(multi.Errors))
		for _, e := range multi.Errors {
			parts = append(parts, e.Error())
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorBody{Error: msg})
}
