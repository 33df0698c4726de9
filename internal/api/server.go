package api

import (
	"context"
	"log"
	"strings"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"vrproute/internal/config"
	"vrproute/internal/metrics"
	"vrproute/internal/store"
)

type Server struct {
	Store  store.Store
	Cache  store.Cache
	Broker EventBroker
	Cfg    *config.Config

	limiter *rate.Limiter
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store;
// with REDIS_URL set, progress events and cached results go through Redis.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var s store.Store
	if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Migrate {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}

	var (
		broker EventBroker = NewBroker()
		cache  store.Cache = store.NewMemoryCache()
	)
	if cfg.Store.RedisURL != "" {
		if opt, err := redis.ParseURL(cfg.Store.RedisURL); err == nil {
			rdb := redis.NewClient(opt)
			broker = NewRedisBroker(rdb)
			cache = store.NewRedisCache(rdb)
		} else {
			log.Printf("op=redis err=%q fallback=memory", err)
		}
	}

	srv := &Server{Store: s, Cache: cache, Broker: broker, Cfg: cfg}
	if cfg.Server.RateRPS > 0 {
		srv.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateRPS), max(cfg.Server.RateBurst, 1))
	}
	srv.baseCtx, srv.cancel = context.WithCancel(context.Background())
	metrics.RegisterDefault()
	return srv, nil
}

// Routes builds the service mux with rate limiting and request metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Solving
	mux.HandleFunc("/v1/solve", s.SolveHandler)
	mux.HandleFunc("/v1/runs", s.RunsHandler)
	mux.HandleFunc("/v1/runs/", s.RunByIDHandler) // includes /ws, /events

	// Health and ops
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)
	mux.HandleFunc("/debug/info", s.DebugJSON)
	mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", s.OpenAPIHandler)
	mux.HandleFunc("/docs", s.DocsHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return Instrument(s.RateLimit(mux))
}

// Shutdown cancels background solves and waits for them to record their
// outcome, or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
