package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadsradar/threads-radar/internal/config"
	"github.com/threadsradar/threads-radar/internal/elasticsearch"
	"github.com/threadsradar/threads-radar/internal/logger"
	"github.com/threadsradar/threads-radar/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexPrefix, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	db, err := store.New(cfg.SQLitePath)
	if err != nil {
		log.Error("open store", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	srv := &server{log: log, cfg: cfg, es: esClient, db: db}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/posts/hot", srv.handleHotPosts)
	r.Get("/topics", srv.handleTopics)
	r.Get("/trends", srv.handleTrends)
	r.Get("/stats", srv.handleStats)
	r.Get("/users/{username}/posts", srv.handleUserPosts)
	r.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log *slog.Logger
	cfg *config.API
	es  *elasticsearch.Client
	db  *store.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHotPosts returns per-post metrics ranked by heat density.
func (s *server) handleHotPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	size := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage)
	start := parseTime(r.URL.Query().Get("start"))
	end := parseTime(r.URL.Query().Get("end"))

	posts, err := s.es.SearchHotPosts(ctx, size, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// handleTopics returns topic summaries ranked by trending score.
func (s *server) handleTopics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	size := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage)
	start := parseTime(r.URL.Query().Get("start"))
	end := parseTime(r.URL.Query().Get("end"))

	topics, err := s.es.SearchTopics(ctx, size, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

// handleTrends returns keyword trends ranked by momentum, optionally
// filtered to one keyword.
func (s *server) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	size := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage)
	start := parseTime(r.URL.Query().Get("start"))
	end := parseTime(r.URL.Query().Get("end"))

	trends, err := s.es.SearchTrends(ctx, keyword, size, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

// handleStats reports raw-post table aggregates from the ingest store.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := s.db.GetStats(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_posts":        stats.TotalPosts,
		"unique_users":       stats.UniqueUsers,
		"total_interactions": stats.TotalInteractions,
		"earliest_post":      stats.EarliestPost,
		"latest_post":        stats.LatestPost,
	})
}

// handleUserPosts returns a user's most recent raw posts.
func (s *server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username is required"})
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage)

	posts, err := s.db.ListByUsername(ctx, username, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
