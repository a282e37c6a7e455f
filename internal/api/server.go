// Package api отдаёт данные стриков и празднований по HTTP:
// клиенту приложения нужны те же счётчики, что и боту.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Сколько непросмотренных празднований отдаём за один запрос.
const unviewedLimit = 50

// Pinger — проверка доступности БД (pgxpool.Pool подходит).
type Pinger interface {
	Ping(ctx context.Context) error
}

// StreakReader — то, что нужно API от сервиса стриков.
type StreakReader interface {
	Snapshots(ctx context.Context, userID int64) (map[streak.ActivityKind]streak.Snapshot, error)
}

// CelebrationReader — то, что нужно API от сервиса празднований.
type CelebrationReader interface {
	Unviewed(ctx context.Context, userID int64, limit int) ([]*celebration.Event, error)
	MarkViewed(ctx context.Context, userID, eventID int64) error
	Achievements(ctx context.Context, userID int64) ([]*celebration.AchievementUnlock, error)
}

// Server — HTTP API.
type Server struct {
	db           Pinger
	streaks      StreakReader
	celebrations CelebrationReader
	token        string
}

func NewServer(db Pinger, streaks StreakReader, celebrations CelebrationReader, token string) *Server {
	return &Server{
		db:           db,
		streaks:      streaks,
		celebrations: celebrations,
		token:        token,
	}
}

// Handler собирает роутер.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/streaks", s.handleStreaks)
		r.Get("/celebrations", s.handleUnviewed)
		r.Post("/celebrations/{eventID}/viewed", s.handleMarkViewed)
		r.Get("/achievements", s.handleAchievements)
	})

	return r
}

// ListenAndServe поднимает сервер и гасит его при отмене ctx.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API слушает %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// authMiddleware проверяет Bearer-токен. Пустой токен отключает проверку.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		log.WithError(err).Warn("healthz: БД недоступна")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	snaps, err := s.streaks.Snapshots(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleUnviewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	events, err := s.celebrations.Unviewed(r.Context(), userID, unviewedLimit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if events == nil {
		events = []*celebration.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"celebrations": events})
}

func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	eventID, ok := pathInt(w, r, "eventID")
	if !ok {
		return
	}
	err := s.celebrations.MarkViewed(r.Context(), userID, eventID)
	if errors.Is(err, common.ErrCelebrationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(w, r, "userID")
	if !ok {
		return
	}
	unlocks, err := s.celebrations.Achievements(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if unlocks == nil {
		unlocks = []*celebration.AchievementUnlock{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": unlocks})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.WithFields(log.Fields{
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).WithError(err).Error("Ошибка обработки запроса")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Не удалось записать ответ")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}
