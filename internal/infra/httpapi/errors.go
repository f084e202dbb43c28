package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/app"
)

type errorResponse struct {
	Error   app.Kind         `json:"error"`
	Message string           `json:"message"`
	Fields  []app.FieldError `json:"fields,omitempty"`
}

var statusByKind = map[app.Kind]int{
	app.KindValidation:      http.StatusBadRequest,
	app.KindInvalidArgument: http.StatusBadRequest,
	app.KindInvalidPeriod:   http.StatusBadRequest,
	app.KindNotFound:        http.StatusNotFound,
	app.KindForbidden:       http.StatusForbidden,
	app.KindDuplicateKey:    http.StatusConflict,
	app.KindUnauthenticated: http.StatusUnauthorized,
	app.KindInternal:        http.StatusInternalServerError,
}

func statusFor(kind app.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind app.Kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// writeAppError maps a service error onto its HTTP status. Anything that is
// not an *app.Error is reported as an internal error without details.
func writeAppError(w http.ResponseWriter, err error) {
	kind := app.KindOf(err)
	resp := errorResponse{Error: kind, Message: app.ReasonOf(err)}
	var appErr *app.Error
	if errors.As(err, &appErr) {
		resp.Fields = appErr.Fields
	}
	writeJSON(w, statusFor(kind), resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).WithError(err)
	if app.KindOf(err) == app.KindInternal {
		logCtx.Error("Request failed")
	} else {
		logCtx.Debug("Request rejected")
	}
	writeAppError(w, err)
}
