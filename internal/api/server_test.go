package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unitmap-io/gounitmap/internal/rules"
	"github.com/unitmap-io/gounitmap/internal/snapshot"
	"github.com/unitmap-io/gounitmap/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryRepository, *snapshot.Holder) {
	t.Helper()
	holder := snapshot.NewHolder()
	repo := store.NewMemoryRepository(holder)
	srv := NewServer(repo, holder, zerolog.Nop(), Options{MaxBodyBytes: 1 << 20})
	return srv, repo, holder
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(blob)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want 'ok'", rec.Body.String())
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	router := srv.Router()

	rule := repo.AppendRule("Sales")
	unit := "sales-unit"
	if _, err := repo.UpdateRule(rule.ID, store.RuleUpdate{UnitID: &unit}); err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}
	if err := repo.AddCondition(rule.ID, rules.Condition{Field: "department", Operator: rules.OpEquals, Value: "Sales"}); err != nil {
		t.Fatalf("AddCondition failed: %v", err)
	}
	repo.SetDefaultUnitID("def-unit")

	rec := doJSON(t, router, http.MethodPost, "/v1/evaluate", map[string]any{
		"context": map[string]any{"department": "Sales"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		UnitID        string `json:"unit_id"`
		MatchedRuleID string `json:"matched_rule_id"`
		ETag          string `json:"etag"`
		Trace         []any  `json:"trace"`
	}
	decodeBody(t, rec, &resp)
	if resp.UnitID != "sales-unit" || resp.MatchedRuleID != rule.ID {
		t.Errorf("response = %+v", resp)
	}
	if resp.ETag == "" {
		t.Error("response must carry the snapshot etag")
	}
	if resp.Trace != nil {
		t.Error("trace must be omitted unless requested")
	}

	// Default path with trace.
	rec = doJSON(t, router, http.MethodPost, "/v1/evaluate", map[string]any{
		"context": map[string]any{"department": "Ops"},
		"trace":   true,
	})
	resp = struct {
		UnitID        string `json:"unit_id"`
		MatchedRuleID string `json:"matched_rule_id"`
		ETag          string `json:"etag"`
		Trace         []any  `json:"trace"`
	}{}
	decodeBody(t, rec, &resp)
	if resp.UnitID != "def-unit" || resp.MatchedRuleID != "" {
		t.Errorf("default response = %+v", resp)
	}
	if len(resp.Trace) != 1 {
		t.Errorf("Expected 1 trace entry, got %d", len(resp.Trace))
	}

	// Missing context is a client error.
	rec = doJSON(t, router, http.MethodPost, "/v1/evaluate", map[string]any{"trace": true})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing context: status = %d, want 400", rec.Code)
	}
}

func TestRulesCRUD(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/rules/", map[string]any{"name": "Enterprise"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("append: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created rules.Rule
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Name != "Enterprise" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, router, http.MethodPatch, "/v1/rules/"+created.ID, map[string]any{
		"unit_id":            "ent-unit",
		"priority":           300,
		"condition_operator": "OR",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated rules.Rule
	decodeBody(t, rec, &updated)
	if updated.UnitID != "ent-unit" || updated.Priority != 300 || updated.ConditionOperator != rules.CombinatorOr {
		t.Errorf("updated = %+v", updated)
	}

	rec = doJSON(t, router, http.MethodPatch, "/v1/rules/"+created.ID, map[string]any{
		"condition_operator": "XOR",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad combinator: status = %d, want 400", rec.Code)
	}
	var badCombinator ErrorResponse
	decodeBody(t, rec, &badCombinator)
	if badCombinator.Fields["condition_operator"] == "" {
		t.Errorf("expected a field-level error for condition_operator, got %+v", badCombinator.Fields)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/rules/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list struct {
		Rules []rules.Rule `json:"rules"`
		ETag  string       `json:"etag"`
	}
	decodeBody(t, rec, &list)
	if len(list.Rules) != 1 || list.ETag == "" {
		t.Errorf("list = %+v", list)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/rules/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/rules/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: status = %d, want 404", rec.Code)
	}
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Code != ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", errResp.Code, ErrCodeNotFound)
	}
}

func TestConditionEndpoints(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	router := srv.Router()
	rule := repo.AppendRule("R")

	rec := doJSON(t, router, http.MethodPost, "/v1/rules/"+rule.ID+"/conditions", map[string]any{
		"field": "country", "operator": "IN", "value": "US, CA",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add condition: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var cond rules.Condition
	decodeBody(t, rec, &cond)
	if len(cond.Values) != 2 {
		t.Errorf("set operator condition = %+v", cond)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/rules/"+rule.ID+"/conditions", map[string]any{
		"field": "x", "operator": "BETWEEN", "value": "1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown operator: status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Code != ErrCodeInvalidOperator {
		t.Errorf("error code = %q, want %q", errResp.Code, ErrCodeInvalidOperator)
	}

	// A pattern that does not compile is rejected at authoring time, not
	// silently accepted to evaluate as false later.
	rec = doJSON(t, router, http.MethodPost, "/v1/rules/"+rule.ID+"/conditions", map[string]any{
		"field": "email", "operator": "REGEX_MATCH", "value": "(",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed regex: status = %d, want 400", rec.Code)
	}
	decodeBody(t, rec, &errResp)
	if errResp.Code != ErrCodeValidation {
		t.Errorf("error code = %q, want %q", errResp.Code, ErrCodeValidation)
	}
	if got := repo.RuleSet().Rules[0].Conditions; len(got) != 1 {
		t.Errorf("rejected condition must not enter authoring state, got %+v", got)
	}

	rec = doJSON(t, router, http.MethodPut, "/v1/rules/"+rule.ID+"/conditions/0", map[string]any{
		"field": "department", "operator": "EQUALS", "value": "Sales",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update condition: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/v1/rules/"+rule.ID+"/conditions/nine", map[string]any{
		"field": "x", "operator": "EQUALS", "value": "1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric index: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/rules/"+rule.ID+"/conditions/7", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range remove: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/rules/"+rule.ID+"/conditions/0", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("remove condition: status = %d, want 204", rec.Code)
	}
}

func TestMoveRuleEndpoint(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	router := srv.Router()
	repo.AppendRule("A")
	b := repo.AppendRule("B")

	rec := doJSON(t, router, http.MethodPost, "/v1/rules/"+b.ID+"/move", map[string]any{"delta": -1})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("move: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := repo.RuleSet().Rules[0].Name; got != "B" {
		t.Errorf("first rule = %q, want 'B'", got)
	}
}

func TestSnapshotEndpoint_ETag(t *testing.T) {
	srv, repo, holder := newTestServer(t)
	router := srv.Router()
	repo.AppendRule("R")

	rec := doJSON(t, router, http.MethodGet, "/v1/mapping/snapshot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: status = %d", rec.Code)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" || etag != holder.Load().ETag {
		t.Fatalf("ETag header = %q, holder = %q", etag, holder.Load().ETag)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/mapping/snapshot", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNotModified {
		t.Errorf("matching If-None-Match: status = %d, want 304", rec2.Code)
	}

	// After a mutation the stale validator no longer matches.
	repo.AppendRule("S")
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req)
	if rec3.Code != http.StatusOK {
		t.Errorf("stale If-None-Match: status = %d, want 200", rec3.Code)
	}
}

func TestMappingExportImportValidate(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	router := srv.Router()

	rule := repo.AppendRule("Sales")
	unit := "sales-unit"
	if _, err := repo.UpdateRule(rule.ID, store.RuleUpdate{UnitID: &unit}); err != nil {
		t.Fatalf("UpdateRule failed: %v", err)
	}
	if err := repo.AddCondition(rule.ID, rules.Condition{Field: "department", Operator: rules.OpEquals, Value: "Sales"}); err != nil {
		t.Fatalf("AddCondition failed: %v", err)
	}
	repo.SetDefaultUnitID("def-unit")

	rec := doJSON(t, router, http.MethodGet, "/v1/mapping/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	exported := rec.Body.Bytes()
	if !strings.Contains(string(exported), `"unit_mapping_rules"`) {
		t.Fatalf("export body = %s", exported)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/mapping/validate", bytes.NewReader(exported))
	recV := httptest.NewRecorder()
	router.ServeHTTP(recV, req)
	if recV.Code != http.StatusOK {
		t.Fatalf("validate: status = %d", recV.Code)
	}
	var vResp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	decodeBody(t, recV, &vResp)
	if !vResp.Valid {
		t.Errorf("exported config should validate, got error %q", vResp.Error)
	}

	// Malformed text is a validation result, not an HTTP failure.
	req = httptest.NewRequest(http.MethodPost, "/v1/mapping/validate", strings.NewReader("{nope"))
	recV = httptest.NewRecorder()
	router.ServeHTTP(recV, req)
	if recV.Code != http.StatusOK {
		t.Fatalf("validate malformed: status = %d, want 200", recV.Code)
	}
	decodeBody(t, recV, &vResp)
	if vResp.Valid || vResp.Error == "" {
		t.Errorf("malformed config should be reported invalid, got %+v", vResp)
	}

	// Import the export into a fresh server and compare behavior.
	srv2, repo2, _ := newTestServer(t)
	router2 := srv2.Router()
	req = httptest.NewRequest(http.MethodPost, "/v1/mapping/import", bytes.NewReader(exported))
	recI := httptest.NewRecorder()
	router2.ServeHTTP(recI, req)
	if recI.Code != http.StatusOK {
		t.Fatalf("import: status = %d, body = %s", recI.Code, recI.Body.String())
	}
	set := repo2.RuleSet()
	if set.DefaultUnitID != "def-unit" || len(set.Rules) != 1 {
		t.Errorf("imported set = %+v", set)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/mapping/import", strings.NewReader("{nope"))
	recI = httptest.NewRecorder()
	router2.ServeHTTP(recI, req)
	if recI.Code != http.StatusBadRequest {
		t.Errorf("import malformed: status = %d, want 400", recI.Code)
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/fields/discover", map[string]any{
		"sample": map[string]any{
			"callDuration": 300,
			"caller":       map[string]any{"country": "US"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("discover: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Fields []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"fields"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(resp.Fields))
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/fields/discover", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing sample: status = %d, want 400", rec.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	holder := snapshot.NewHolder()
	repo := store.NewMemoryRepository(holder)
	srv := NewServer(repo, holder, zerolog.Nop(), Options{MaxBodyBytes: 64})
	router := srv.Router()

	big := `{"context":{"pad":"` + strings.Repeat("x", 256) + `"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(big))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: status = %d, want 413", rec.Code)
	}
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Code != ErrCodeRequestTooLarge {
		t.Errorf("error code = %q, want %q", errResp.Code, ErrCodeRequestTooLarge)
	}

	// Import reads the raw body; the cap applies there too.
	req = httptest.NewRequest(http.MethodPost, "/v1/mapping/import", strings.NewReader(big))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized import body: status = %d, want 413", rec.Code)
	}
}
