package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vrproute/internal/model"
)

// Solve
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeProblem(w, 405, "Method Not Allowed", "use POST", r.URL.Path)
		return
	}
	if s.Cfg.Server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.Cfg.Server.MaxBodyBytes)
	}
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	job, err := validateSolveRequest(&req, s.Cfg)
	if err != nil {
		writeError(w, err, r.URL.Path, "")
		return
	}
	run, err := s.newRun(r.Context(), job)
	if err != nil {
		writeProblem(w, 500, "Store Error", err.Error(), r.URL.Path)
		return
	}

	if req.Async {
		s.executeAsync(run, job)
		w.Header().Set("Location", "/v1/runs/"+run.ID)
		writeJSON(w, 202, map[string]string{"runId": run.ID, "status": run.Status})
		return
	}
	run, err = s.execute(r.Context(), run, job)
	if err != nil {
		writeError(w, err, r.URL.Path, run.ID)
		return
	}
	writeJSON(w, 200, run)
}

// Runs index
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, 405, "Method Not Allowed", "use GET", r.URL.Path)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeProblem(w, 400, "Invalid Query", "limit must be a non-negative integer", r.URL.Path)
			return
		}
		limit = n
	}
	runs, err := s.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeProblem(w, 500, "Store Error", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]any{"runs": runs})
}

// RunByIDHandler serves /v1/runs/{id}, /v1/runs/{id}/ws and
// /v1/runs/{id}/events.
func (s *Server) RunByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeProblem(w, 404, "Not Found", "run id required", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		writeProblem(w, 405, "Method Not Allowed", "use GET", r.URL.Path)
		return
	}
	switch sub {
	case "":
		run, err := s.Store.GetRun(r.Context(), id)
		if err != nil {
			writeError(w, err, r.URL.Path, id)
			return
		}
		writeJSON(w, 200, run)
	case "ws":
		s.RunStreamWS(w, r, id)
	case "events":
		s.runEventsSSE(w, r, id)
	default:
		writeProblem(w, 404, "Not Found", "unknown run resource", r.URL.Path)
	}
}

// runEventsSSE streams a run's events as Server-Sent Events until the
// run finishes or the client goes away.
func (s *Server) runEventsSSE(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, 500, "Streaming Unsupported", "", r.URL.Path)
		return
	}
	if _, err := s.Store.GetRun(r.Context(), id); err != nil {
		writeError(w, err, r.URL.Path, id)
		return
	}
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(200)
	flusher.Flush()

	send := func(evt Event) {
		b, _ := json.Marshal(evt.Data)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, b)
		flusher.Flush()
	}
	// The run may have finished before the subscription existed.
	if evt, done := s.finalEvent(r.Context(), id); done {
		send(evt)
		return
	}
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			send(evt)
			if terminal(evt.Type) {
				return
			}
		case <-keepalive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// finalEvent reports the terminal event of an already finished run.
func (s *Server) finalEvent(ctx context.Context, id string) (Event, bool) {
	run, err := s.Store.GetRun(ctx, id)
	if err != nil {
		return Event{}, false
	}
	switch run.Status {
	case model.RunCompleted:
		data := map[string]any{"runId": run.ID, "elapsedMs": run.ElapsedMs, "cacheHit": run.CacheHit}
		if run.Solution != nil {
			data["cost"] = run.Solution.Cost
			data["optimal"] = run.Solution.Optimal
			data["truncated"] = run.Solution.Truncated
			data["trips"] = len(run.Solution.Trips)
		}
		return Event{Type: EventCompleted, Data: data}, true
	case model.RunFailed:
		return Event{Type: EventFailed, Data: map[string]any{"runId": run.ID, "error": run.Error}}, true
	}
	return Event{}, false
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}
