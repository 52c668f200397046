package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unitmap-io/gounitmap/internal/rules"
	"github.com/unitmap-io/gounitmap/internal/store"
)

type listRulesResponse struct {
	Version       string       `json:"version"`
	DefaultUnitID string       `json:"default_unit_id"`
	Rules         []rules.Rule `json:"rules"`
	ETag          string       `json:"etag"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	set := s.repo.RuleSet()
	writeJSON(w, http.StatusOK, listRulesResponse{
		Version:       set.Version,
		DefaultUnitID: set.DefaultUnitID,
		Rules:         set.Rules,
		ETag:          s.holder.Load().ETag,
	})
}

type appendRuleRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAppendRule(w http.ResponseWriter, r *http.Request) {
	var req appendRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	rule := s.repo.AppendRule(req.Name)
	s.log.Info().Str("rule_id", rule.ID).Str("name", rule.Name).Msg("rule appended")
	writeJSON(w, http.StatusCreated, rule)
}

type updateRuleRequest struct {
	Name              *string `json:"name,omitempty"`
	Priority          *int    `json:"priority,omitempty"`
	UnitID            *string `json:"unit_id,omitempty"`
	ConditionOperator *string `json:"condition_operator,omitempty"`
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req updateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	update := store.RuleUpdate{
		Name:     req.Name,
		Priority: req.Priority,
		UnitID:   req.UnitID,
	}
	if req.ConditionOperator != nil {
		combinator := rules.Combinator(*req.ConditionOperator)
		if combinator != rules.CombinatorAnd && combinator != rules.CombinatorOr {
			writeErrorResponse(w, r, http.StatusBadRequest,
				NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, "invalid rule update").
					WithFields(map[string]string{"condition_operator": "must be AND or OR"}))
			return
		}
		update.ConditionOperator = &combinator
	}

	rule, err := s.repo.UpdateRule(chi.URLParam(r, "id"), update)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.repo.DeleteRule(id); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	s.log.Info().Str("rule_id", id).Msg("rule deleted")
	w.WriteHeader(http.StatusNoContent)
}

type moveRuleRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleMoveRule(w http.ResponseWriter, r *http.Request) {
	var req moveRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if err := s.repo.MoveRule(chi.URLParam(r, "id"), req.Delta); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type conditionRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

func (s *Server) decodeCondition(w http.ResponseWriter, r *http.Request) (rules.Condition, bool) {
	var req conditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return rules.Condition{}, false
	}
	op := rules.Operator(req.Operator)
	if op != "" && !rules.KnownOperator(op) {
		BadRequestError(w, r, ErrCodeInvalidOperator, "operator "+req.Operator+" is not supported")
		return rules.Condition{}, false
	}
	cond := rules.NewCondition(req.Field, op, req.Value)
	if err := rules.ValidateCondition(cond); err != nil {
		BadRequestError(w, r, ErrCodeValidation, err.Error())
		return rules.Condition{}, false
	}
	return cond, true
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	cond, ok := s.decodeCondition(w, r)
	if !ok {
		return
	}
	if err := s.repo.AddCondition(chi.URLParam(r, "id"), cond); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cond)
}

func (s *Server) handleUpdateCondition(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		BadRequestError(w, r, ErrCodeBadRequest, "condition index must be an integer")
		return
	}
	cond, ok := s.decodeCondition(w, r)
	if !ok {
		return
	}
	if err := s.repo.UpdateCondition(chi.URLParam(r, "id"), index, cond); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cond)
}

func (s *Server) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		BadRequestError(w, r, ErrCodeBadRequest, "condition index must be an integer")
		return
	}
	if err := s.repo.RemoveCondition(chi.URLParam(r, "id"), index); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrRuleNotFound):
		NotFoundError(w, r, err.Error())
	case errors.Is(err, store.ErrConditionIndex), errors.Is(err, store.ErrDuplicateRuleID):
		BadRequestError(w, r, ErrCodeValidation, err.Error())
	default:
		InternalError(w, r, err.Error())
	}
}
