package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"teacher_timetable/internal/app"
	"teacher_timetable/internal/domain/access"
	"teacher_timetable/internal/infra/auth"
)

const maxBodyBytes = 1 << 20

type Server struct {
	accounts    *app.AccountService
	timetables  *app.TimetableService
	adjustments *app.AdjustmentService
	messaging   *app.MessagingService
	tokens      *auth.TokenIssuer
	logger      *logrus.Entry
}

func NewServer(
	accounts *app.AccountService,
	timetables *app.TimetableService,
	adjustments *app.AdjustmentService,
	messaging *app.MessagingService,
	tokens *auth.TokenIssuer,
	logger *logrus.Entry,
) *Server {
	return &Server{
		accounts:    accounts,
		timetables:  timetables,
		adjustments: adjustments,
		messaging:   messaging,
		tokens:      tokens,
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/auth/me", s.handleMe)

		r.Route("/timetable", func(r chi.Router) {
			r.Get("/", s.handleMyTimetable)
			r.Post("/leave-requests", s.handleSubmitLeave)
			r.Get("/adjustments", s.handleMyAdjustments)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/timetables", s.handleListTimetables)
			r.Get("/timetables/{teacherEmail}", s.handleTeacherTimetable)
			r.Get("/teachers", s.handleListTeachers)
			r.Post("/lectures", s.handleUpsertLecture)
			r.Delete("/lectures/{teacherEmail}/{day}/{lectureId}", s.handleDeleteLecture)
			r.Get("/adjustments", s.handleListAdjustments)
			r.Get("/adjustments/pending", s.handleListPendingAdjustments)
			r.Post("/adjustments/update", s.handleUpdateAdjustment)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", s.handleSendMessage)
			r.Get("/", s.handleListMessages)
			r.Put("/{id}/read", s.handleMarkRead)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("HTTP request handled")
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAppError(w, app.ErrNotAuthenticated)
			return
		}

		claims, err := s.tokens.ParseToken(token)
		if err != nil {
			s.logger.WithError(err).Debug("Rejected session token")
			writeError(w, http.StatusUnauthorized, app.KindUnauthenticated, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, claims.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type actorKey struct{}

func actorFromContext(ctx context.Context) access.Actor {
	actor, _ := ctx.Value(actorKey{}).(access.Actor)
	return actor
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &app.Error{Kind: app.KindValidation, Reason: "request body is required", Err: err}
		}
		return &app.Error{Kind: app.KindValidation, Reason: "invalid JSON body: " + err.Error(), Err: err}
	}
	return nil
}
