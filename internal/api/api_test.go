package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

func newTestServer(t *testing.T, configure ...func(*Options)) *Server {
	t.Helper()
	db, err := store.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	signer, err := signing.NewSigner(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	opts := Options{
		Catalog:        catalog.NewSource(catalog.Default()),
		DB:             db,
		Signer:         signer,
		Scanner:        scan.NewScanner(2, 10*time.Second, version.EngineVersion),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		ReplayInterval: time.Millisecond,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return NewServer(opts)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t).Routes()

	w := doJSON(t, h, "GET", "/health", nil)
	expectStatus(t, w, http.StatusOK)
	resp := decode[HealthCheckResponse](t, w)
	if resp.Status != HealthStatusHealthy {
		t.Errorf("Expected healthy, got %s: %+v", resp.Status, resp.Checks)
	}
	for _, name := range []string{"catalog", "database", "scanner", "signing"} {
		if _, ok := resp.Checks[name]; !ok {
			t.Errorf("Missing %s check", name)
		}
	}
	if got := w.Header().Get("X-Engine-Version"); got != version.EngineVersion {
		t.Errorf("Expected X-Engine-Version %q, got %q", version.EngineVersion, got)
	}

	expectStatus(t, doJSON(t, h, "GET", "/health/live", nil), http.StatusOK)
	expectStatus(t, doJSON(t, h, "GET", "/health/ready", nil), http.StatusOK)
}

func TestServerWithoutArchive(t *testing.T) {
	s := NewServer(Options{
		Catalog: catalog.NewSource(catalog.Default()),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h := s.Routes()

	w := doJSON(t, h, "GET", "/health", nil)
	expectStatus(t, w, http.StatusOK)
	if resp := decode[HealthCheckResponse](t, w); resp.Status != HealthStatusDegraded {
		t.Errorf("Expected degraded without database and signer, got %s", resp.Status)
	}

	w = doJSON(t, h, "GET", "/api/v1/battles", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
	if got := w.Header().Get("X-Error-Type"); got != ErrTypeServiceUnavailable {
		t.Errorf("Expected %s, got %s", ErrTypeServiceUnavailable, got)
	}

	// Unsaved simulations still work, unsigned.
	w = doJSON(t, h, "POST", "/api/v1/ghosts/ashen-lancers/challenge", nil)
	expectStatus(t, w, http.StatusOK)
	resp := decode[BattleResponse](t, w)
	if resp.Signature != "" || resp.Digest == "" {
		t.Errorf("Expected digest without signature, got digest=%q signature=%q", resp.Digest, resp.Signature)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t).Routes()

	w := doJSON(t, h, "GET", "/api/v1/catalog", nil)
	expectStatus(t, w, http.StatusOK)
	cat := decode[CatalogResponse](t, w)
	if len(cat.Units) == 0 || len(cat.Cards) == 0 || len(cat.DefaultDeck) == 0 {
		t.Errorf("Expected a populated catalog, got %d units, %d cards, %d deck cards",
			len(cat.Units), len(cat.Cards), len(cat.DefaultDeck))
	}

	w = doJSON(t, h, "GET", "/api/v1/ghosts", nil)
	expectStatus(t, w, http.StatusOK)
	ghosts := decode[GhostsResponse](t, w)
	ids := make([]string, len(ghosts.Ghosts))
	for i, g := range ghosts.Ghosts {
		ids[i] = g.ID
	}
	for _, want := range []string{"ashen-lancers", "ember-sages", "feral-swarm"} {
		if !slices.Contains(ids, want) {
			t.Errorf("Expected ghost %s in %v", want, ids)
		}
	}
}

func TestChallengeMatchesDirectSimulation(t *testing.T) {
	h := newTestServer(t).Routes()
	cat := catalog.Default()

	w := doJSON(t, h, "POST", "/api/v1/ghosts/feral-swarm/challenge", map[string]any{
		"seed":       "abc",
		"conditions": map[string]any{"event": "blood-moon"},
	})
	expectStatus(t, w, http.StatusOK)
	resp := decode[BattleResponse](t, w)

	req, _ := battle.GhostRequest(cat, "feral-swarm", battle.CompositionOf(cat.DefaultArmy()), cat.DefaultDeck(), engine.StringSeed("abc"))
	req, err := battle.Conditions{EventID: "blood-moon"}.Apply(cat, req)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	want := battle.Simulate(cat, req)

	if resp.Result.Seed != 96354 {
		t.Errorf("Expected normalized seed 96354, got %d", resp.Result.Seed)
	}
	got, _ := json.Marshal(resp.Result)
	exp, _ := json.Marshal(want)
	if !bytes.Equal(got, exp) {
		t.Errorf("Challenge result differs from direct simulation:\n got %s\nwant %s", got, exp)
	}
	if resp.Signature == "" {
		t.Error("Expected a signature")
	}
}

func TestChallengeDefaultsToGhostSeed(t *testing.T) {
	h := newTestServer(t).Routes()
	ghost, _ := catalog.Default().LookupGhost("ember-sages")

	w := doJSON(t, h, "POST", "/api/v1/ghosts/ember-sages/challenge", nil)
	expectStatus(t, w, http.StatusOK)
	if resp := decode[BattleResponse](t, w); resp.Result.Seed != ghost.Seed {
		t.Errorf("Expected ghost seed %d, got %d", ghost.Seed, resp.Result.Seed)
	}
}

func TestChallengeEmptyChunkedBody(t *testing.T) {
	h := newTestServer(t).Routes()
	ghost, _ := catalog.Default().LookupGhost("feral-swarm")

	req := httptest.NewRequest("POST", "/api/v1/ghosts/feral-swarm/challenge", io.NopCloser(strings.NewReader("")))
	if req.ContentLength != -1 {
		t.Fatalf("Expected unknown content length, got %d", req.ContentLength)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK)
	if resp := decode[BattleResponse](t, w); resp.Result.Seed != ghost.Seed {
		t.Errorf("Expected ghost seed %d, got %d", ghost.Seed, resp.Result.Seed)
	}
}

func TestChallengeErrors(t *testing.T) {
	h := newTestServer(t).Routes()

	tests := []struct {
		name    string
		path    string
		body    any
		status  int
		errType string
	}{
		{"unknown ghost", "/api/v1/ghosts/nobody/challenge", nil, http.StatusNotFound, ErrTypeGhostNotFound},
		{"unknown event", "/api/v1/ghosts/feral-swarm/challenge", map[string]any{"conditions": map[string]any{"event": "eclipse"}}, http.StatusBadRequest, ErrTypeInvalidParams},
		{"unknown relic", "/api/v1/ghosts/feral-swarm/challenge", map[string]any{"conditions": map[string]any{"relics": []string{"crown"}}}, http.StatusBadRequest, ErrTypeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, "POST", tt.path, tt.body)
			expectStatus(t, w, tt.status)
			if got := w.Header().Get("X-Error-Type"); got != tt.errType {
				t.Errorf("Expected error type %s, got %s", tt.errType, got)
			}
			e := decode[EngineError](t, w)
			if e.RequestID == "" {
				t.Error("Expected request id in error")
			}
		})
	}
}

func TestSimulateRejectsMalformedBody(t *testing.T) {
	h := newTestServer(t).Routes()

	req := httptest.NewRequest("POST", "/api/v1/simulate", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
	if got := w.Header().Get("X-Error-Category"); got != string(CategoryValidation) {
		t.Errorf("Expected validation category, got %s", got)
	}

	deck := make([]string, maxDeckSize+1)
	w = doJSON(t, h, "POST", "/api/v1/simulate", map[string]any{"seed": 1, "player_deck": deck})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestSimulateSaveVerifyAndList(t *testing.T) {
	h := newTestServer(t).Routes()
	cat := catalog.Default()
	ghost, _ := cat.LookupGhost("ashen-lancers")

	w := doJSON(t, h, "POST", "/api/v1/simulate", map[string]any{
		"seed":        12345,
		"player_army": battle.CompositionOf(cat.DefaultArmy()),
		"player_deck": cat.DefaultDeck(),
		"ghost_army":  battle.CompositionOf(ghost.Units),
		"ghost_deck":  ghost.Deck,
		"save":        true,
	})
	expectStatus(t, w, http.StatusCreated)
	sim := decode[BattleResponse](t, w)
	if sim.BattleID == "" {
		t.Fatal("Expected a battle id")
	}

	w = doJSON(t, h, "GET", "/api/v1/battles/"+sim.BattleID, nil)
	expectStatus(t, w, http.StatusOK)
	stored := decode[store.Battle](t, w)
	if stored.Seed != 12345 || stored.Digest != sim.Digest || stored.Signature != sim.Signature {
		t.Errorf("Stored battle does not match response: %+v", stored)
	}

	w = doJSON(t, h, "POST", "/api/v1/verify", VerifyRequest{BattleID: sim.BattleID})
	expectStatus(t, w, http.StatusOK)
	v := decode[VerifyResponse](t, w)
	if !v.Match {
		t.Errorf("Expected replay to match, mismatches %v", v.Mismatches)
	}
	if v.DigestMatch == nil || !*v.DigestMatch {
		t.Error("Expected digest match")
	}
	if v.SignatureValid == nil || !*v.SignatureValid {
		t.Error("Expected valid signature")
	}

	w = doJSON(t, h, "GET", "/api/v1/battles?winner="+string(sim.Result.Winner), nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[store.BattlesList](t, w); list.TotalCount != 1 {
		t.Errorf("Expected 1 battle, got %d", list.TotalCount)
	}

	expectStatus(t, doJSON(t, h, "GET", "/api/v1/battles?page=0", nil), http.StatusBadRequest)
}

func TestSimulatePinsAbsentSeed(t *testing.T) {
	h := newTestServer(t).Routes()

	w := doJSON(t, h, "POST", "/api/v1/ghosts/feral-swarm/challenge", map[string]any{"save": true})
	expectStatus(t, w, http.StatusCreated)
	sim := decode[BattleResponse](t, w)

	w = doJSON(t, h, "POST", "/api/v1/verify", VerifyRequest{BattleID: sim.BattleID})
	expectStatus(t, w, http.StatusOK)
	if v := decode[VerifyResponse](t, w); !v.Match {
		t.Errorf("Expected stored battle to replay, mismatches %v", v.Mismatches)
	}
}

func TestVerifyInlineTamperedRecord(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()
	cat := catalog.Default()

	req, _ := battle.GhostRequest(cat, "ember-sages", battle.CompositionOf(cat.DefaultArmy()), cat.DefaultDeck(), engine.NumberSeed(99))
	record := signing.NewRecord(version.EngineVersion, req, battle.Simulate(cat, req))
	_, sig, err := s.signer.Sign(record)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	w := doJSON(t, h, "POST", "/api/v1/verify", VerifyRequest{Record: &record, Signature: sig})
	expectStatus(t, w, http.StatusOK)
	if v := decode[VerifyResponse](t, w); !v.Match || v.SignatureValid == nil || !*v.SignatureValid {
		t.Fatalf("Expected untouched record to verify: %+v", v)
	}

	record.Result.Remaining.PlayerHP += 10
	w = doJSON(t, h, "POST", "/api/v1/verify", VerifyRequest{Record: &record, Signature: sig})
	expectStatus(t, w, http.StatusOK)
	v := decode[VerifyResponse](t, w)
	if v.Match || !slices.Contains(v.Mismatches, "remaining") {
		t.Errorf("Expected remaining mismatch, got match=%v mismatches=%v", v.Match, v.Mismatches)
	}
	if v.SignatureValid == nil || *v.SignatureValid {
		t.Error("Expected signature to be rejected for a tampered record")
	}

	expectStatus(t, doJSON(t, h, "POST", "/api/v1/verify", map[string]any{}), http.StatusBadRequest)
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t).Routes()
	for _, path := range []string{"/api/v1/battles/missing", "/api/v1/scans/missing", "/api/v1/scans/missing/hits", "/api/v1/campaigns/missing"} {
		w := doJSON(t, h, "GET", path, nil)
		expectStatus(t, w, http.StatusNotFound)
		if got := w.Header().Get("X-Error-Type"); got != ErrTypeNotFound {
			t.Errorf("%s: expected %s, got %s", path, ErrTypeNotFound, got)
		}
	}
	expectStatus(t, doJSON(t, h, "POST", "/api/v1/verify", VerifyRequest{BattleID: "missing"}), http.StatusNotFound)
}

func TestScanEndpoint(t *testing.T) {
	h := newTestServer(t).Routes()

	w := doJSON(t, h, "POST", "/api/v1/scan", map[string]any{
		"ghost":      "feral-swarm",
		"seed_start": 1,
		"seed_end":   200,
		"metric":     "margin",
		"target_op":  "ge",
		"target_val": -1e9,
		"limit":      10,
		"save":       true,
	})
	expectStatus(t, w, http.StatusOK)
	resp := decode[ScanResponse](t, w)

	if resp.Summary.TotalEvaluated != 200 || resp.Summary.HitsFound != 200 {
		t.Errorf("Expected 200 evaluated and found, got %+v", resp.Summary)
	}
	if got := resp.Summary.Wins + resp.Summary.Losses + resp.Summary.Draws; got != 200 {
		t.Errorf("Expected outcomes to sum to 200, got %d", got)
	}
	if len(resp.Hits) != 10 {
		t.Fatalf("Expected 10 hits, got %d", len(resp.Hits))
	}
	for i, hit := range resp.Hits {
		if hit.Seed != uint32(i+1) {
			t.Errorf("Expected hit %d at seed %d, got %d", i, i+1, hit.Seed)
		}
	}
	if resp.ScanID == "" {
		t.Fatal("Expected a scan id")
	}

	w = doJSON(t, h, "GET", "/api/v1/scans/"+resp.ScanID, nil)
	expectStatus(t, w, http.StatusOK)
	run := decode[store.ScanRun](t, w)
	if run.GhostID != "feral-swarm" || run.HitCount != 10 || run.TotalEvaluated != 200 {
		t.Errorf("Unexpected stored run: %+v", run)
	}

	w = doJSON(t, h, "GET", "/api/v1/scans/"+resp.ScanID+"/hits?page=2&per_page=5", nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[store.HitsPage](t, w)
	if page.TotalCount != 10 || len(page.Hits) != 5 {
		t.Fatalf("Expected 5 of 10 hits, got %d of %d", len(page.Hits), page.TotalCount)
	}
	if d := page.Hits[0].DeltaSeed; d == nil || *d != 1 {
		t.Errorf("Expected delta 1 across the page boundary, got %v", d)
	}

	w = doJSON(t, h, "GET", "/api/v1/scans/"+resp.ScanID+"/export", nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected CSV, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 11 || lines[0] != "seed,delta_seed,metric,winner,rounds" {
		t.Fatalf("Unexpected export:\n%s", w.Body.String())
	}
	if !strings.HasPrefix(lines[1], "1,,") || !strings.HasPrefix(lines[2], "2,1,") {
		t.Errorf("Unexpected first rows: %q %q", lines[1], lines[2])
	}
}

func TestScanOutlivesRequestTimeout(t *testing.T) {
	h := newTestServer(t, func(o *Options) {
		o.RequestTimeout = time.Millisecond
	}).Routes()

	w := doJSON(t, h, "POST", "/api/v1/scan", map[string]any{
		"ghost":      "feral-swarm",
		"seed_start": 1,
		"seed_end":   20000,
		"metric":     "rounds",
		"target_op":  "ge",
		"target_val": 0,
		"limit":      5,
		"timeout_ms": 60000,
	})
	expectStatus(t, w, http.StatusOK)
	resp := decode[ScanResponse](t, w)
	if resp.Summary.TimedOut || resp.Summary.TotalEvaluated != 20000 {
		t.Errorf("Expected a complete scan of 20000 seeds, got %+v", resp.Summary)
	}
}

func TestServiceErrorReportsEffectiveTimeout(t *testing.T) {
	eh := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), 45*time.Second)

	tests := []struct {
		name string
		err  error
		want float64
	}{
		{"scan deadline", &scan.TimeoutError{Timeout: 1500 * time.Millisecond}, 1500},
		{"wrapped scan deadline", fmt.Errorf("scan: %w", &scan.TimeoutError{Timeout: 2 * time.Second}), 2000},
		{"request deadline", context.DeadlineExceeded, 45000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			eh.HandleServiceError(w, httptest.NewRequest("POST", "/api/v1/scan", nil), "scan", tt.err)

			expectStatus(t, w, http.StatusRequestTimeout)
			resp := decode[EngineError](t, w)
			if resp.Type != ErrTypeTimeout {
				t.Errorf("Expected %s, got %s", ErrTypeTimeout, resp.Type)
			}
			if got := resp.Context["timeout_ms"]; got != tt.want {
				t.Errorf("Expected timeout_ms %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScanValidation(t *testing.T) {
	h := newTestServer(t).Routes()

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"reversed range", map[string]any{"seed_start": 10, "seed_end": 1, "target_op": "ge"}, "seed_end"},
		{"bad op", map[string]any{"seed_start": 1, "seed_end": 10, "target_op": "nope"}, "target_op"},
		{"missing op", map[string]any{"seed_start": 1, "seed_end": 10}, "target_op"},
		{"bad metric", map[string]any{"seed_start": 1, "seed_end": 10, "target_op": "ge", "metric": "luck"}, "metric"},
		{"bad winner", map[string]any{"seed_start": 1, "seed_end": 10, "target_op": "ge", "winner": "nobody"}, "winner"},
		{"huge limit", map[string]any{"seed_start": 1, "seed_end": 10, "target_op": "ge", "limit": maxScanLimit + 1}, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, "POST", "/api/v1/scan", tt.body)
			expectStatus(t, w, http.StatusBadRequest)
			e := decode[EngineError](t, w)
			if e.Type != ErrTypeValidation || e.Context["field"] != tt.field {
				t.Errorf("Expected validation error on %s, got %+v", tt.field, e)
			}
		})
	}

	w := doJSON(t, h, "POST", "/api/v1/scan", map[string]any{"ghost": "nobody", "seed_start": 1, "seed_end": 1, "target_op": "ge"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestCampaignEndpoint(t *testing.T) {
	h := newTestServer(t).Routes()

	w := doJSON(t, h, "POST", "/api/v1/campaigns", CampaignRequest{
		Name: "three and out",
		Script: `
			ghost = "ashen-lancers"
			dobattle = function() {
				if (battles >= 3) stop()
			}
		`,
	})
	expectStatus(t, w, http.StatusOK)
	resp := decode[CampaignResponse](t, w)
	if resp.CampaignID == "" || resp.Outcome == nil {
		t.Fatalf("Expected a stored campaign, got %+v", resp)
	}
	if resp.Outcome.State != "stopped" || len(resp.Outcome.Battles) != 3 {
		t.Fatalf("Expected 3 battles then stop, got %s with %d", resp.Outcome.State, len(resp.Outcome.Battles))
	}

	w = doJSON(t, h, "GET", "/api/v1/campaigns/"+resp.CampaignID, nil)
	expectStatus(t, w, http.StatusOK)
	detail := decode[CampaignDetail](t, w)
	if detail.Campaign.FinalState != store.CampaignStopped || detail.Campaign.TotalBattles != 3 {
		t.Errorf("Unexpected stored campaign: %+v", detail.Campaign)
	}
	if len(detail.Battles) != 3 {
		t.Fatalf("Expected 3 stored battles, got %d", len(detail.Battles))
	}
	for i, b := range detail.Battles {
		want := resp.Outcome.Battles[i]
		if b.Number != i+1 || b.Seed != want.Seed || b.GhostID != "ashen-lancers" {
			t.Errorf("Battle %d: got %+v, want seed %d", i+1, b, want.Seed)
		}
	}
}

func TestCampaignCappedByServer(t *testing.T) {
	s := newTestServer(t)
	s.campaignMaxBattles = 4
	h := s.Routes()

	w := doJSON(t, h, "POST", "/api/v1/campaigns", map[string]any{
		"script":  "dobattle = function() {}",
		"options": map[string]any{"max_battles": 1000},
	})
	expectStatus(t, w, http.StatusOK)
	resp := decode[CampaignResponse](t, w)
	if resp.Outcome.State != "completed" || len(resp.Outcome.Battles) != 4 {
		t.Errorf("Expected 4 battles, got %s with %d", resp.Outcome.State, len(resp.Outcome.Battles))
	}
}

func TestCampaignScriptErrors(t *testing.T) {
	h := newTestServer(t).Routes()

	tests := []struct {
		name   string
		script string
		status int
	}{
		{"missing script", "", http.StatusBadRequest},
		{"no dobattle", "var x = 1", http.StatusUnprocessableEntity},
		{"syntax error", "function (", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, "POST", "/api/v1/campaigns", CampaignRequest{Script: tt.script})
			expectStatus(t, w, tt.status)
		})
	}
}

func TestReplayWebsocket(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	w := doJSON(t, h, "POST", "/api/v1/ghosts/ember-sages/challenge", map[string]any{"seed": 2024, "save": true})
	expectStatus(t, w, http.StatusCreated)
	sim := decode[BattleResponse](t, w)

	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/battles/" + sim.BattleID + "/replay"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	read := func() ReplayMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg ReplayMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		return msg
	}

	start := read()
	if start.Type != ReplayStart || start.Seed != 2024 || start.BattleID != sim.BattleID {
		t.Fatalf("Unexpected start frame: %+v", start)
	}
	for i := range sim.Result.Rounds {
		msg := read()
		if msg.Type != ReplayRound || msg.Round == nil || *msg.Round != sim.Result.Rounds[i] {
			t.Fatalf("Round %d: unexpected frame %+v", i+1, msg)
		}
	}
	end := read()
	if end.Type != ReplayResult || end.Match == nil || !*end.Match {
		t.Fatalf("Expected matching result frame, got %+v", end)
	}
	if end.Result.Winner != sim.Result.Winner {
		t.Errorf("Expected winner %s, got %s", sim.Result.Winner, end.Result.Winner)
	}

	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected normal close, got %v", err)
	}
}

func TestReplayUnknownBattle(t *testing.T) {
	h := newTestServer(t).Routes()
	expectStatus(t, doJSON(t, h, "GET", "/api/v1/battles/missing/replay", nil), http.StatusNotFound)
}

func TestMetricsRecordsRoutes(t *testing.T) {
	h := newTestServer(t).Routes()

	doJSON(t, h, "GET", "/api/v1/ghosts", nil)
	doJSON(t, h, "GET", "/api/v1/ghosts", nil)
	doJSON(t, h, "POST", "/api/v1/ghosts/nobody/challenge", nil)

	w := doJSON(t, h, "GET", "/metrics", nil)
	expectStatus(t, w, http.StatusOK)
	resp := decode[MetricsResponse](t, w)

	if op := resp.Operations["GET /api/v1/ghosts"]; op.TotalRequests != 2 || op.SuccessRequests != 2 {
		t.Errorf("Unexpected ghosts metrics: %+v", op)
	}
	if op := resp.Operations["POST /api/v1/ghosts/{id}/challenge"]; op.ErrorRequests != 1 {
		t.Errorf("Unexpected challenge metrics: %+v", op)
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[string]ErrorCategory{
		ErrTypeValidation:    CategoryValidation,
		ErrTypeInvalidParams: CategoryValidation,
		ErrTypeGhostNotFound: CategoryBattle,
		ErrTypeScript:        CategoryBattle,
		ErrTypeTimeout:       CategoryTimeout,
		ErrTypeInternal:      CategorySystem,
	}
	for errType, want := range tests {
		if got := GetErrorCategory(errType); got != want {
			t.Errorf("GetErrorCategory(%s) = %s, want %s", errType, got, want)
		}
	}
}
