package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/storage"
)

const maxBodyBytes = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// fail maps a service or storage error onto an HTTP response. Unexpected
// errors are logged and only detailed to the client in development.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var body errorBody
	status := http.StatusInternalServerError

	switch {
	case core.IsValidation(err):
		status = http.StatusUnprocessableEntity
		body = errorBody{Error: "validation_error", Message: "Dados inválidos: " + err.Error()}
	case errors.Is(err, storage.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		body = errorBody{Error: "invalid_credentials", Message: "E-mail ou senha incorretos"}
	case errors.Is(err, services.ErrNotFamilyMember):
		status = http.StatusForbidden
		body = errorBody{Error: "forbidden", Message: "Usuário não pertence a esta família"}
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
		body = errorBody{Error: "not_found", Message: "Recurso não encontrado"}
	case errors.Is(err, storage.ErrEmailTaken):
		status = http.StatusConflict
		body = errorBody{Error: "email_taken", Message: "E-mail já cadastrado"}
	default:
		body = errorBody{Error: "internal_error", Message: "Erro interno do servidor"}
		if s.development {
			body.Details = err.Error()
		}
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, applog.NewFields())
	}

	writeJSON(w, status, body)
}

// decodeJSON reads a bounded JSON body into dst. It writes the 400 response
// itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "Formato de requisição inválido"
		if errors.Is(err, io.EOF) {
			msg = "Corpo da requisição vazio"
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg, Details: err.Error()})
		return false
	}
	return true
}

// parseYearMonth reads year and month query parameters, defaulting to the
// month of now.
func parseYearMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, core.Invalid(fmt.Errorf("year must be a number, got %q", v))
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, core.Invalid(fmt.Errorf("month must be a number, got %q", v))
		}
		if m < 1 || m > 12 {
			return 0, 0, core.Invalid(core.ErrInvalidMonth)
		}
		month = time.Month(m)
	}

	return year, month, nil
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(fmt.Errorf("invalid id %q", raw))
	}
	return id, nil
}
