package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/rune-ration-replay-go/internal/signing"
)

const replayWriteWait = 10 * time.Second

// handleReplay re-simulates an archived battle and streams it over a
// websocket: a start frame, one frame per round paced by the replay interval,
// and a result frame carrying whether the replay matched the archive.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	b, err := s.db.GetBattle(id)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "battle "+id, err)
		return
	}
	record, err := recordFromBattle(b)
	if err != nil {
		s.errorHandler.HandleServiceError(w, r, "replay", err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("replay_upgrade_failed", "battle_id", id, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Reading is only used to notice the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	requestID := middleware.GetReqID(r.Context())
	report := signing.Replay(s.catalog.Current(), record)
	if err := s.streamReplay(ctx, conn, b.ID, report); err != nil {
		s.logger.Info("replay_aborted", "request_id", requestID, "battle_id", id, "error", err)
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replay complete"),
		time.Now().Add(replayWriteWait))
	s.logger.Info("replay_completed",
		"request_id", requestID,
		"battle_id", id,
		"rounds", len(report.Actual.Rounds),
		"match", report.Match,
	)
}

func (s *Server) streamReplay(ctx context.Context, conn *websocket.Conn, battleID string, report signing.ReplayReport) error {
	send := func(msg ReplayMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(replayWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	if err := send(ReplayMessage{Type: ReplayStart, BattleID: battleID, Seed: report.Actual.Seed}); err != nil {
		return err
	}
	for i := range report.Actual.Rounds {
		if err := s.waitReplayTick(ctx); err != nil {
			return err
		}
		if err := send(ReplayMessage{Type: ReplayRound, BattleID: battleID, Round: &report.Actual.Rounds[i]}); err != nil {
			return err
		}
	}
	match := report.Match
	return send(ReplayMessage{Type: ReplayResult, BattleID: battleID, Result: &report.Actual, Match: &match})
}

func (s *Server) waitReplayTick(ctx context.Context) error {
	if s.replayInterval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.replayInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
