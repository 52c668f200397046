package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unitmap-io/gounitmap/internal/engine"
	"github.com/unitmap-io/gounitmap/internal/telemetry"
)

// evaluateRequest represents the request body for POST /v1/evaluate
type evaluateRequest struct {
	Context map[string]any `json:"context"`
	Trace   bool           `json:"trace,omitempty"`
}

// evaluateResponse represents the evaluation outcome
type evaluateResponse struct {
	UnitID        string              `json:"unit_id"`
	MatchedRuleID string              `json:"matched_rule_id,omitempty"`
	Trace         []engine.TraceEntry `json:"trace,omitempty"`
	ETag          string              `json:"etag"`
	EvaluatedAt   string              `json:"evaluated_at"`
}

// handleEvaluate maps a call context to a unit id against the current
// immutable snapshot. Stateless across concurrent calls.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Context == nil {
		BadRequestError(w, r, ErrCodeMissingField, "context is required")
		return
	}

	snap := s.holder.Load()
	result := engine.Evaluate(snap.RuleSet, engine.Context(req.Context))

	outcome := "default"
	if result.MatchedRuleID != "" {
		outcome = "rule"
	}
	if s.opts.Metrics {
		telemetry.Evaluations.WithLabelValues(outcome).Inc()
	}
	s.log.Debug().
		Str("unit_id", result.UnitID).
		Str("matched_rule_id", result.MatchedRuleID).
		Str("outcome", outcome).
		Msg("evaluated context")

	resp := evaluateResponse{
		UnitID:        result.UnitID,
		MatchedRuleID: result.MatchedRuleID,
		ETag:          snap.ETag,
		EvaluatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if req.Trace {
		resp.Trace = result.Trace
	}
	writeJSON(w, http.StatusOK, resp)
}
