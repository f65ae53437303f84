package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/smp-leadform/internal/form"
	"github.com/wolfman30/smp-leadform/internal/session"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Request fields of the keypress endpoint.
const (
	fieldKey        = "key"
	fieldTargetType = "target_type"
)

// Handler exposes the form flow over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// SessionView is the client-facing state of a session.
type SessionView struct {
	ID            string       `json:"id"`
	Step          int          `json:"step"`
	TotalSteps    int          `json:"total_steps"`
	Progress      *int         `json:"progress,omitempty"`
	ScrollToTop   bool         `json:"scroll_to_top"`
	Answers       form.Answers `json:"answers"`
	Error         string       `json:"error,omitempty"`
	ErrorFields   []string     `json:"error_fields,omitempty"`
	Submitting    bool         `json:"submitting"`
	Completed     bool         `json:"completed"`
	AutoAdvanceMS int64        `json:"auto_advance_ms,omitempty"`
	Variant       string       `json:"variant,omitempty"`
}

// NewSessionView renders sess for the client.
func NewSessionView(sess *session.Session, autoAdvance time.Duration) SessionView {
	progress := form.Progress(sess.Step)
	return SessionView{
		ID:            sess.ID,
		Step:          sess.Step,
		TotalSteps:    form.TotalSteps,
		Progress:      &progress,
		ScrollToTop:   sess.ScrollToTop,
		Answers:       sess.Answers,
		Error:         sess.Errors[sess.Step],
		ErrorFields:   sess.ErrorFields[sess.Step],
		Submitting:    sess.Submitting,
		Completed:     sess.Completed,
		AutoAdvanceMS: autoAdvance.Milliseconds(),
		Variant:       sess.Variant,
	}
}

// view renders sess, dropping the progress bar when it is switched off.
func (h *Handler) view(sess *session.Session, autoAdvance time.Duration) SessionView {
	v := NewSessionView(sess, autoAdvance)
	if !h.svc.opts.ShowProgressBar {
		v.Progress = nil
	}
	return v
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession handles POST /sessions. The query string carries the
// landing page attribution parameters.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Start(r.Context(), r.URL.Query())
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(sess, 0))
}

// GetSession handles GET /sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(sess, 0))
}

// AdvanceStep handles POST /sessions/{sessionID}/steps/{step}
func (h *Handler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	step, ok := h.stepParam(w, r)
	if !ok {
		return
	}
	values, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Advance(r.Context(), chi.URLParam(r, "sessionID"), step, values)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(sess, 0))
}

// ChangeStep handles POST /sessions/{sessionID}/steps/{step}/change
func (h *Handler) ChangeStep(w http.ResponseWriter, r *http.Request) {
	step, ok := h.stepParam(w, r)
	if !ok {
		return
	}
	values, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, delay, err := h.svc.Change(r.Context(), chi.URLParam(r, "sessionID"), step, values)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.view(sess, delay))
}

// Back handles POST /sessions/{sessionID}/back
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Back(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(sess, 0))
}

// KeyPress handles POST /sessions/{sessionID}/keypress
func (h *Handler) KeyPress(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decode(w, r)
	if !ok {
		return
	}
	key, targetType := values.Get(fieldKey), values.Get(fieldTargetType)
	values.Del(fieldKey)
	values.Del(fieldTargetType)

	sess, err := h.svc.KeyPress(r.Context(), chi.URLParam(r, "sessionID"), key, targetType, values)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(sess, 0))
}

// Submit handles POST /sessions/{sessionID}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	values, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, result, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"), values)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SaveProgress handles PUT /sessions/{sessionID}/progress
func (h *Handler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SaveProgress(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProgress handles GET /sessions/{sessionID}/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	answers, err := h.svc.LoadProgress(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	if answers == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no saved progress"})
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// ClearProgress handles DELETE /sessions/{sessionID}/progress
func (h *Handler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearProgress(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FormatPhone handles GET /format/phone?value=
func (h *Handler) FormatPhone(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"formatted": form.FormatPhone(r.URL.Query().Get("value")),
	})
}

func (h *Handler) stepParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid step"})
		return 0, false
	}
	return step, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	values, err := decodeFields(r)
	if err != nil {
		h.logger.Warn("failed to decode request", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return nil, false
	}
	return values, true
}

// fail maps service errors to responses. Validation and dispatch failures
// carry the session view so the client can render the step error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr) && sess != nil:
		writeJSON(w, http.StatusUnprocessableEntity, h.view(sess, 0))
	case errors.Is(err, ErrDispatchFailed) && sess != nil:
		writeJSON(w, http.StatusBadGateway, h.view(sess, 0))
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, ErrStepMismatch), errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrIncompleteAnswers):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidStep):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeFields reads form-encoded or JSON field values.
func decodeFields(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return url.Values{}, nil
		}
		return nil, err
	}
	values := make(url.Values, len(raw))
	for key, v := range raw {
		switch typed := v.(type) {
		case []any:
			for _, item := range typed {
				s, err := scalar(key, item)
				if err != nil {
					return nil, err
				}
				values.Add(key, s)
			}
		case nil:
		default:
			s, err := scalar(key, typed)
			if err != nil {
				return nil, err
			}
			values.Set(key, s)
		}
	}
	return values, nil
}

func scalar(key string, v any) (string, error) {
	switch typed := v.(type) {
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("field %q: unsupported value %T", key, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
