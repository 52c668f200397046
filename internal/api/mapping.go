package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/unitmap-io/gounitmap/internal/fields"
	"github.com/unitmap-io/gounitmap/internal/mapping"
)

// handleExport serves the canonical interchange document built from the
// current authoring state.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapping.Build(s.repo.RuleSet()))
}

// readBody drains the request body, reporting oversized payloads with the
// dedicated status.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r)
			return nil, false
		}
		BadRequestError(w, r, ErrCodeBadRequest, "could not read request body")
		return nil, false
	}
	return body, true
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// handleValidate checks raw config text for structural well-formedness.
// The outcome is an explicit validation result, not an HTTP error.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := mapping.Validate(body); err != nil {
		writeJSON(w, http.StatusOK, validateResponse{Valid: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: true})
}

// handleImport replaces the authoring state with a parsed config document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	set, err := mapping.Parse(body)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidConfig, err.Error())
		return
	}
	if err := s.repo.Replace(set); err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	s.log.Info().Int("rules", len(set.Rules)).Str("version", set.Version).Msg("config imported")
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"etag": s.holder.Load().ETag,
	})
}

type discoverRequest struct {
	Sample map[string]any `json:"sample"`
}

type discoverResponse struct {
	Fields []fields.Descriptor `json:"fields"`
}

// handleDiscover classifies a sample context into field descriptors for
// authoring assistance. It has no effect on evaluation.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Sample == nil {
		BadRequestError(w, r, ErrCodeMissingField, "sample is required")
		return
	}
	writeJSON(w, http.StatusOK, discoverResponse{Fields: fields.Discover(req.Sample)})
}
