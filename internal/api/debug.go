package api

import (
	"net/http"
	"runtime"
	"time"

	"vrproute/internal/buildinfo"
	"vrproute/internal/sysinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build":      buildinfo.Info(),
		"time":       time.Now().UTC().Format(time.RFC3339),
		"system":     sysinfo.Get(),
		"goroutines": runtime.NumGoroutine(),
		"config": map[string]any{
			"addr":        s.Cfg.Server.Addr,
			"algorithm":   s.Cfg.Solver.Algorithm,
			"parallel":    s.Cfg.Solver.Parallel,
			"workers":     s.Cfg.Solver.Workers,
			"timeLimit":   s.Cfg.Solver.TimeLimit.String(),
			"rateRps":     s.Cfg.Server.RateRPS,
			"rateBurst":   s.Cfg.Server.RateBurst,
			"cacheTtl":    s.Cfg.Store.CacheTTL.String(),
			"hasDatabase": s.Cfg.Store.DatabaseURL != "",
			"hasRedis":    s.Cfg.Store.RedisURL != "",
		},
	}
	writeJSON(w, 200, info)
}
