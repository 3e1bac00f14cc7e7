package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/rune-ration-replay-go/internal/battle"
	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/engine"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// handleCatalog returns the catalog snapshot new battles are fought with
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Current()
	s.writeJSON(w, http.StatusOK, CatalogResponse{
		Units:         cat.Units(),
		Cards:         cat.Cards(),
		Ghosts:        cat.Ghosts(),
		Events:        cat.Events(),
		Relics:        cat.Relics(),
		DefaultArmy:   cat.DefaultArmy(),
		DefaultDeck:   cat.DefaultDeck(),
		EngineVersion: version.EngineVersion,
	})
}

// handleListGhosts returns the ghost armies that can be challenged
func (s *Server) handleListGhosts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GhostsResponse{
		Ghosts:        s.catalog.Current().Ghosts(),
		EngineVersion: version.EngineVersion,
	})
}

// handleSimulate runs a fully specified battle
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	if err := ValidateBattleRequest(req.Request); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}

	cat := s.catalog.Current()
	breq, err := req.Conditions.Apply(cat, req.Request)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "simulate", err)
		return
	}
	s.runBattle(w, r, cat, breq, "", req.Conditions.EventID, req.Save)
}

// handleChallenge fights the player's army against a catalog ghost. The body
// is optional.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ghostID := chi.URLParam(r, "id")
	cat := s.catalog.Current()
	if _, ok := cat.LookupGhost(ghostID); !ok {
		s.errorHandler.HandleTypedError(w, r, http.StatusNotFound, ErrTypeGhostNotFound,
			fmt.Sprintf("ghost %q not found", ghostID), nil)
		return
	}

	var req ChallengeRequest
	if err := s.decodeOptionalJSON(r, &req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}

	army, deck := req.Army, req.Deck
	if army == nil {
		army = cat.DefaultArmy()
	}
	if deck == nil {
		deck = cat.DefaultDeck()
	}
	breq, _ := battle.GhostRequest(cat, ghostID, battle.CompositionOf(army), deck, req.Seed)
	breq, err := req.Conditions.Apply(cat, breq)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "challenge", err)
		return
	}
	s.runBattle(w, r, cat, breq, ghostID, req.Conditions.EventID, req.Save)
}

// runBattle simulates req, signs the record and optionally archives it.
func (s *Server) runBattle(w http.ResponseWriter, r *http.Request, cat *catalog.Catalog, req battle.Request, ghostID, eventID string, save bool) {
	if save && !s.requireDB(w, r) {
		return
	}

	// Pin absent seeds so the archived request replays identically.
	if req.Seed.IsAbsent() {
		req.Seed = engine.NumberSeed(float64(engine.NormalizeSeed(req.Seed)))
	}
	res := battle.Simulate(cat, req)
	record := signing.NewRecord(version.EngineVersion, req, res)
	digest, signature, err := s.sign(record)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "sign battle", err)
		return
	}

	resp := BattleResponse{
		Result:        res,
		GhostID:       ghostID,
		Digest:        digest,
		Signature:     signature,
		EngineVersion: version.EngineVersion,
		Request:       req,
	}

	status := http.StatusOK
	if save {
		stored, err := s.archiveBattle(record, ghostID, eventID, digest, signature)
		if err != nil {
			s.errorHandler.HandleServiceError(w, r, "archive battle", err)
			return
		}
		resp.BattleID = stored.ID
		status = http.StatusCreated
	}

	s.logger.Info("battle_simulated",
		"request_id", middleware.GetReqID(r.Context()),
		"seed", res.Seed,
		"ghost", ghostID,
		"winner", res.Winner,
		"rounds", len(res.Rounds),
		"saved", save,
	)
	s.writeJSON(w, status, resp)
}

func (s *Server) sign(record signing.Record) (digest, signature string, err error) {
	if s.signer == nil {
		digest, err = signing.Digest(record)
		return digest, "", err
	}
	return s.signer.Sign(record)
}

func (s *Server) archiveBattle(record signing.Record, ghostID, eventID, digest, signature string) (*store.Battle, error) {
	reqJSON, err := json.Marshal(record.Request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	resJSON, err := json.Marshal(record.Result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	b := &store.Battle{
		Seed:          record.Seed,
		GhostID:       ghostID,
		EventID:       eventID,
		Winner:        string(record.Result.Winner),
		PlayerHP:      record.Result.Remaining.PlayerHP,
		GhostHP:       record.Result.Remaining.GhostHP,
		Rounds:        len(record.Result.Rounds),
		Request:       reqJSON,
		Result:        resJSON,
		Digest:        digest,
		Signature:     signature,
		EngineVersion: record.EngineVersion,
	}
	if err := s.db.SaveBattle(b); err != nil {
		return nil, err
	}
	return b, nil
}

// recordFromBattle rebuilds the signed record of an archived battle.
func recordFromBattle(b *store.Battle) (signing.Record, error) {
	record := signing.Record{EngineVersion: b.EngineVersion, Seed: b.Seed}
	if err := json.Unmarshal(b.Request, &record.Request); err != nil {
		return record, fmt.Errorf("decode stored request: %w", err)
	}
	if err := json.Unmarshal(b.Result, &record.Result); err != nil {
		return record, fmt.Errorf("decode stored result: %w", err)
	}
	return record, nil
}

// handleVerify replays a stored or inline battle and checks its signature
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}

	var (
		record       signing.Record
		storedDigest string
		signature    = req.Signature
	)
	if req.BattleID != "" {
		if !s.requireDB(w, r) {
			return
		}
		b, err := s.db.GetBattle(req.BattleID)
		if err != nil {
			s.errorHandler.HandleServiceError(w, r, "battle "+req.BattleID, err)
			return
		}
		if record, err = recordFromBattle(b); err != nil {
			s.errorHandler.HandleServiceError(w, r, "verify", err)
			return
		}
		storedDigest = b.Digest
		if signature == "" {
			signature = b.Signature
		}
	} else {
		record = *req.Record
		if err := ValidateBattleRequest(record.Request); err != nil {
			s.handleDecodeError(w, r, err)
			return
		}
	}

	report := signing.Replay(s.catalog.Current(), record)
	digest, err := signing.Digest(record)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "verify", err)
		return
	}

	resp := VerifyResponse{
		Match:         report.Match,
		Mismatches:    report.Mismatches,
		Digest:        digest,
		Expected:      report.Expected,
		Actual:        report.Actual,
		EngineVersion: version.EngineVersion,
	}
	if storedDigest != "" {
		ok := storedDigest == digest
		resp.DigestMatch = &ok
	}
	if signature != "" && s.signer != nil {
		ok := s.signer.Verify(record, signature) == nil
		resp.SignatureValid = &ok
	}

	s.logger.Info("battle_verified",
		"request_id", middleware.GetReqID(r.Context()),
		"battle_id", req.BattleID,
		"match", report.Match,
		"mismatches", report.Mismatches,
	)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleListBattles lists archived battles, newest first
func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	q := r.URL.Query()
	page, perPage, err := pageParams(q.Get("page"), q.Get("per_page"))
	if err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	list, err := s.db.ListBattles(store.BattlesQuery{
		GhostID: q.Get("ghost"),
		Winner:  q.Get("winner"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "list battles", err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleGetBattle returns one archived battle
func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	b, err := s.db.GetBattle(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "battle "+id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func pageParams(pageStr, perPageStr string) (page, perPage int, err error) {
	page, perPage = 1, defaultPageSize
	if pageStr != "" {
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 {
			return 0, 0, fieldError("page", "page must be a positive integer")
		}
	}
	if perPageStr != "" {
		if perPage, err = strconv.Atoi(perPageStr); err != nil || perPage < 1 || perPage > maxPageSize {
			return 0, 0, fieldError("per_page", "per_page must be between 1 and %d", maxPageSize)
		}
	}
	return page, perPage, nil
}
