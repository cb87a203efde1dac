package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

const (
	enqueueTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// errQueueUnavailable marks submissions the run queue did not accept.
var errQueueUnavailable = errors.New("queue unavailable")

type exploreRequest struct {
	Query string `json:"query"`
}

type exploreResponse struct {
	Steps []explorer.Step  `json:"steps"`
	API   explorer.APIInfo `json:"api"`
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req exploreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return "", false
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query required")
		return "", false
	}
	return query, true
}

func (s *Server) explore(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	steps := s.runner.Run(ctx, explorer.RunRequest{Query: query})
	s.writeJSON(w, http.StatusOK, exploreResponse{Steps: steps, API: explorer.Assemble(steps)})
}

func (s *Server) submitExploration(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}
	runID, err := s.enqueueRun(r.Context(), query)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errQueueUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("enqueue exploration failed", zap.Error(err))
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"id": runID})
}

func (s *Server) getExploration(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.runStore.GetRun(r.Context(), runID)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) cancelExploration(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.runStore.GetRun(r.Context(), runID)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	if run.State.Terminal() {
		s.writeError(w, http.StatusConflict, "exploration already finished")
		return
	}
	if err := s.runStore.UpdateRunState(r.Context(), runID, explorer.RunCanceled, "canceled via API"); err != nil {
		s.writeRunError(w, err)
		return
	}
	interrupted := s.dispatcher.Cancel(runID)
	s.logger.Info("exploration canceled", zap.String("run_id", runID), zap.Bool("in_flight", interrupted))
	s.writeJSON(w, http.StatusOK, map[string]string{"id": runID, "state": string(explorer.RunCanceled)})
}

func (s *Server) enqueueRun(ctx context.Context, query string) (string, error) {
	runID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	now := s.clock.Now()
	run := explorer.Run{
		ID:        runID,
		Query:     query,
		State:     explorer.RunQueued,
		Submitted: now,
		Steps:     explorer.NewSteps(),
	}
	if err := s.runStore.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	queueCtx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()
	item := explorer.QueueItem{RunID: runID, Query: query, Submitted: now.Unix()}
	if err := s.dispatcher.Enqueue(queueCtx, item); err != nil {
		if stateErr := s.runStore.UpdateRunState(
			context.WithoutCancel(ctx), runID, explorer.RunCanceled, errQueueUnavailable.Error(),
		); stateErr != nil {
			s.logger.Warn("mark unqueued run failed", zap.String("run_id", runID), zap.Error(stateErr))
		}
		return "", fmt.Errorf("enqueue run: %w: %w", errQueueUnavailable, err)
	}
	return runID, nil
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, explorer.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, "exploration not found")
		return
	}
	if errors.Is(err, explorer.ErrRunFinished) {
		s.writeError(w, http.StatusConflict, "exploration already finished")
		return
	}
	s.logger.Error("run store failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "run store unavailable")
}

func (s *Server) requestTimeout() time.Duration {
	if d := s.cfg.RequestTimeout(); d > 0 {
		return d
	}
	return 2 * time.Minute
}
