package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/rune-ration-replay-go/internal/scripting"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

const campaignFlushSize = 50

// handleRunCampaign runs a campaign script to completion. With an archive
// configured the campaign and its battles are stored as they are fought. A
// script that fails before its first battle is rejected; later failures are
// reported in the outcome.
func (s *Server) handleRunCampaign(w http.ResponseWriter, r *http.Request) {
	var req CampaignRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleDecodeError(w, r, err)
		return
	}
	opts := req.Options
	if opts.MaxBattles <= 0 || opts.MaxBattles > s.campaignMaxBattles {
		opts.MaxBattles = s.campaignMaxBattles
	}
	if len(opts.Deck) > maxDeckSize {
		s.errorHandler.HandleValidationError(w, r, "options.deck", "deck too large")
		return
	}

	requestID := middleware.GetReqID(r.Context())
	eng := scripting.NewEngine(s.catalog.Current(), s.logger.With("request_id", requestID))

	var campaign *store.Campaign
	if s.db != nil {
		campaign = &store.Campaign{Name: req.Name, ScriptSource: req.Script}
		if err := s.db.SaveCampaign(campaign); err != nil {
			s.errorHandler.HandleServiceError(w, r, "save campaign", err)
			return
		}
		eng.SetRecorder(store.NewCampaignRecorder(s.db, campaign.ID, campaignFlushSize, s.logger))
	}

	s.logger.Info("campaign_request",
		"request_id", requestID,
		"name", req.Name,
		"max_battles", opts.MaxBattles,
		"ghost", opts.GhostID,
	)
	outcome, runErr := eng.Run(r.Context(), req.Script, opts)

	resp := CampaignResponse{Outcome: outcome, EngineVersion: version.EngineVersion}
	if campaign != nil {
		resp.CampaignID = campaign.ID
		st := outcome.Stats
		err := s.db.FinishCampaign(campaign.ID, string(outcome.State), store.CampaignStats{
			TotalBattles: st.Battles,
			Wins:         st.Wins,
			Losses:       st.Losses,
			Draws:        st.Draws,
			BestStreak:   st.BestStreak,
			WorstStreak:  st.WorstStreak,
		})
		if err != nil {
			s.errorHandler.HandleServiceError(w, r, "finish campaign", err)
			return
		}
	}

	if runErr != nil && len(outcome.Battles) == 0 {
		s.errorHandler.HandleTypedError(w, r, http.StatusUnprocessableEntity, ErrTypeScript, runErr.Error(), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetCampaign returns a stored campaign and its battles
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	c, err := s.db.GetCampaign(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "campaign "+id, err)
		return
	}
	battles, err := s.db.ListCampaignBattles(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "campaign "+id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CampaignDetail{
		Campaign:      c,
		Battles:       battles,
		EngineVersion: version.EngineVersion,
	})
}
