package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestSaveAndGetBattle(t *testing.T) {
	db := newTestDB(t)

	b := &Battle{
		Seed:          4294967295,
		GhostID:       "ashen-lancers",
		EventID:       "blood-moon",
		Winner:        "player",
		PlayerHP:      5.3,
		GhostHP:       2.5,
		Rounds:        5,
		Request:       json.RawMessage(`{"seed":42}`),
		Result:        json.RawMessage(`{"winner":"player"}`),
		Digest:        "abc123",
		Signature:     "sig",
		EngineVersion: "test",
	}
	if err := db.SaveBattle(b); err != nil {
		t.Fatalf("Failed to save battle: %v", err)
	}
	if b.ID == "" {
		t.Fatal("Expected generated battle ID")
	}

	got, err := db.GetBattle(b.ID)
	if err != nil {
		t.Fatalf("Failed to get battle: %v", err)
	}
	if got.Seed != b.Seed {
		t.Errorf("Expected seed %d, got %d", b.Seed, got.Seed)
	}
	if got.GhostID != b.GhostID || got.EventID != b.EventID || got.Winner != b.Winner {
		t.Errorf("Unexpected battle fields: %+v", got)
	}
	if got.PlayerHP != 5.3 || got.GhostHP != 2.5 || got.Rounds != 5 {
		t.Errorf("Unexpected battle outcome: %+v", got)
	}
	if string(got.Request) != `{"seed":42}` || string(got.Result) != `{"winner":"player"}` {
		t.Errorf("Unexpected payloads: %s %s", got.Request, got.Result)
	}
	if got.Digest != "abc123" || got.Signature != "sig" {
		t.Errorf("Unexpected digest/signature: %s %s", got.Digest, got.Signature)
	}
	if !got.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", b.CreatedAt, got.CreatedAt)
	}
}

func TestGetBattleNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetBattle("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListBattles(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	battles := []*Battle{
		{ID: "b1", GhostID: "ashen-lancers", Winner: "player", CreatedAt: base},
		{ID: "b2", GhostID: "ember-sages", Winner: "ghost", CreatedAt: base.Add(time.Minute)},
		{ID: "b3", GhostID: "ashen-lancers", Winner: "ghost", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, b := range battles {
		b.Request = json.RawMessage(`{}`)
		b.Result = json.RawMessage(`{}`)
		b.EngineVersion = "test"
		if err := db.SaveBattle(b); err != nil {
			t.Fatalf("Failed to save battle %s: %v", b.ID, err)
		}
	}

	result, err := db.ListBattles(BattlesQuery{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("Failed to list battles: %v", err)
	}
	if result.TotalCount != 3 || len(result.Battles) != 3 {
		t.Fatalf("Expected 3 battles, got %d/%d", result.TotalCount, len(result.Battles))
	}
	if result.Battles[0].ID != "b3" || result.Battles[2].ID != "b1" {
		t.Errorf("Expected newest first, got %s..%s", result.Battles[0].ID, result.Battles[2].ID)
	}

	result, err = db.ListBattles(BattlesQuery{GhostID: "ashen-lancers", Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("Failed to list ghost battles: %v", err)
	}
	if result.TotalCount != 2 {
		t.Errorf("Expected 2 ashen-lancers battles, got %d", result.TotalCount)
	}

	result, err = db.ListBattles(BattlesQuery{GhostID: "ashen-lancers", Winner: "ghost"})
	if err != nil {
		t.Fatalf("Failed to list filtered battles: %v", err)
	}
	if result.TotalCount != 1 || result.Battles[0].ID != "b3" {
		t.Errorf("Expected only b3, got %+v", result.Battles)
	}

	result, err = db.ListBattles(BattlesQuery{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("Failed to list battles page 2: %v", err)
	}
	if len(result.Battles) != 1 || result.TotalPages != 2 {
		t.Errorf("Expected 1 battle on page 2 of 2, got %d of %d", len(result.Battles), result.TotalPages)
	}
}

func TestSaveScanAndHits(t *testing.T) {
	db := newTestDB(t)

	mean := 3.25
	run := &ScanRun{
		ID:             "scan-1",
		GhostID:        "ember-sages",
		Metric:         "margin",
		SeedStart:      0,
		SeedEnd:        1000,
		TargetOp:       "ge",
		TargetVal:      3,
		HitLimit:       10,
		TotalEvaluated: 1001,
		Wins:           600,
		Losses:         400,
		Draws:          1,
		SummaryMean:    &mean,
		EngineVersion:  "test",
	}
	hits := []ScanHit{
		{Seed: 100, Metric: 3.5, Winner: "player", Rounds: 5},
		{Seed: 250, Metric: 4.1, Winner: "player", Rounds: 3},
		{Seed: 500, Metric: 3.0, Winner: "player", Rounds: 5},
		{Seed: 750, Metric: 3.2, Winner: "player", Rounds: 4},
		{Seed: 900, Metric: 3.9, Winner: "player", Rounds: 5},
	}
	if err := db.SaveScan(run, hits); err != nil {
		t.Fatalf("Failed to save scan: %v", err)
	}

	got, err := db.GetScan("scan-1")
	if err != nil {
		t.Fatalf("Failed to get scan: %v", err)
	}
	if got.HitCount != 5 || got.TotalEvaluated != 1001 || got.Draws != 1 {
		t.Errorf("Unexpected scan counters: %+v", got)
	}
	if got.SummaryMean == nil || *got.SummaryMean != 3.25 {
		t.Errorf("Expected mean 3.25, got %v", got.SummaryMean)
	}
	if got.SummaryMin != nil {
		t.Errorf("Expected nil min, got %v", *got.SummaryMin)
	}
	if string(got.Request) != "{}" {
		t.Errorf("Expected default request payload, got %s", got.Request)
	}

	page, err := db.GetScanHits("scan-1", 1, 3)
	if err != nil {
		t.Fatalf("Failed to get hits: %v", err)
	}
	if page.TotalCount != 5 || len(page.Hits) != 3 || page.TotalPages != 2 {
		t.Fatalf("Unexpected page: total %d len %d pages %d", page.TotalCount, len(page.Hits), page.TotalPages)
	}
	if page.Hits[0].DeltaSeed != nil {
		t.Errorf("First hit should have nil delta, got %d", *page.Hits[0].DeltaSeed)
	}
	if page.Hits[1].DeltaSeed == nil || *page.Hits[1].DeltaSeed != 150 {
		t.Errorf("Expected delta 150, got %v", page.Hits[1].DeltaSeed)
	}

	page, err = db.GetScanHits("scan-1", 2, 3)
	if err != nil {
		t.Fatalf("Failed to get hits page 2: %v", err)
	}
	if len(page.Hits) != 2 {
		t.Fatalf("Expected 2 hits on page 2, got %d", len(page.Hits))
	}
	if page.Hits[0].DeltaSeed == nil || *page.Hits[0].DeltaSeed != 250 {
		t.Errorf("Expected delta 250 across pages, got %v", page.Hits[0].DeltaSeed)
	}
}

func TestScanNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetScan("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from GetScan, got %v", err)
	}
	if _, err := db.GetScanHits("missing", 1, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from GetScanHits, got %v", err)
	}
}

func TestCampaignLifecycle(t *testing.T) {
	db := newTestDB(t)

	c := &Campaign{Name: "farm", ScriptSource: "dobattle = function() {}"}
	if err := db.SaveCampaign(c); err != nil {
		t.Fatalf("Failed to save campaign: %v", err)
	}

	battles := []CampaignBattle{
		{Number: 1, Seed: 1, GhostID: "ashen-lancers", Winner: "player", PlayerHP: 10, GhostHP: 0, Rounds: 3},
		{Number: 2, Seed: 2, GhostID: "ashen-lancers", EventID: "blood-moon", Winner: "ghost", PlayerHP: 0, GhostHP: 4, Rounds: 5},
	}
	if err := db.SaveCampaignBattles(c.ID, battles); err != nil {
		t.Fatalf("Failed to save campaign battles: %v", err)
	}

	stats := CampaignStats{TotalBattles: 2, Wins: 1, Losses: 1, BestStreak: 1, WorstStreak: -1}
	if err := db.FinishCampaign(c.ID, CampaignStopped, stats); err != nil {
		t.Fatalf("Failed to finish campaign: %v", err)
	}

	got, err := db.GetCampaign(c.ID)
	if err != nil {
		t.Fatalf("Failed to get campaign: %v", err)
	}
	if got.FinalState != CampaignStopped || got.TotalBattles != 2 || got.WorstStreak != -1 {
		t.Errorf("Unexpected campaign: %+v", got)
	}
	if got.EndedAt == nil {
		t.Error("Expected ended_at to be set")
	}

	stored, err := db.ListCampaignBattles(c.ID)
	if err != nil {
		t.Fatalf("Failed to list campaign battles: %v", err)
	}
	if len(stored) != 2 || stored[1].EventID != "blood-moon" || stored[1].Winner != "ghost" {
		t.Errorf("Unexpected campaign battles: %+v", stored)
	}

	if err := db.FinishCampaign("missing", CampaignCompleted, stats); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound finishing unknown campaign, got %v", err)
	}
}

func TestCampaignBattlesRequireCampaign(t *testing.T) {
	db := newTestDB(t)

	err := db.SaveCampaignBattles("missing", []CampaignBattle{{Number: 1, Winner: "draw"}})
	if err == nil {
		t.Fatal("Expected foreign key violation")
	}
}
