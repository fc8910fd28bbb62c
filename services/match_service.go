package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/archery-system/brackets"
	"github.com/Dosada05/archery-system/models"
	"github.com/Dosada05/archery-system/repositories"
	"github.com/Dosada05/archery-system/scoring"
)

type SetInput struct {
	MatchID     int     `json:"-"`
	Number      int     `json:"-"`
	Slot1Arrows []int64 `json:"slot1_arrows"`
	Slot2Arrows []int64 `json:"slot2_arrows"`
}

type ShootoffInput struct {
	MatchID       int      `json:"-"`
	Slot1Arrow    int64    `json:"slot1_arrow"`
	Slot2Arrow    int64    `json:"slot2_arrow"`
	Slot1Distance *float64 `json:"slot1_distance,omitempty"`
	Slot2Distance *float64 `json:"slot2_distance,omitempty"`
}

// ConfirmSetResult is returned by the mutating scoring entry points: the
// stored set and the match standing derived from the confirmed history.
type ConfirmSetResult struct {
	Set   *models.Set   `json:"set"`
	Match *models.Match `json:"match"`

	bracketCompleted bool
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	// SaveSet stores or overwrites an unconfirmed set (re-entry correction).
	SaveSet(ctx context.Context, input SetInput) (*models.Set, error)
	// ConfirmSet is the primary mutating entry point: it scores the set,
	// recomputes the match standing from the confirmed history and runs
	// advancement if the match completed. Safe to retry.
	ConfirmSet(ctx context.Context, input SetInput) (*ConfirmSetResult, error)
	// ResolveShootoff decides a 5-5 tie from one arrow per side.
	ResolveShootoff(ctx context.Context, input ShootoffInput) (*ConfirmSetResult, error)
}

type matchService struct {
	db          *sql.DB
	bracketRepo repositories.BracketRepository
	matchRepo   repositories.MatchRepository
	setRepo     repositories.SetRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	setRepo repositories.SetRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:          db,
		bracketRepo: bracketRepo,
		matchRepo:   matchRepo,
		setRepo:     setRepo,
		hub:         hub,
		logger:      logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	sets, err := s.setRepo.ListByMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	match.Sets = sets
	healMatchTotals(match)
	return match, nil
}

func (s *matchService) SaveSet(ctx context.Context, input SetInput) (*models.Set, error) {
	match, err := s.matchRepo.GetByID(ctx, s.db, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := checkScorable(match, input.Number); err != nil {
		return nil, err
	}
	if err := scoring.ValidateArrows(input.Slot1Arrows); err != nil {
		return nil, err
	}
	if err := scoring.ValidateArrows(input.Slot2Arrows); err != nil {
		return nil, err
	}
	if n := len(input.Slot1Arrows); n > models.ArrowsPerSet {
		return nil, fmt.Errorf("%w: slot 1 has %d arrows, at most %d allowed", scoring.ErrInvalidArrowValue, n, models.ArrowsPerSet)
	}
	if n := len(input.Slot2Arrows); n > models.ArrowsPerSet {
		return nil, fmt.Errorf("%w: slot 2 has %d arrows, at most %d allowed", scoring.ErrInvalidArrowValue, n, models.ArrowsPerSet)
	}

	set := &models.Set{
		MatchID:     input.MatchID,
		Number:      input.Number,
		Slot1Arrows: input.Slot1Arrows,
		Slot2Arrows: input.Slot2Arrows,
	}
	if err := s.setRepo.Upsert(ctx, s.db, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *matchService) ConfirmSet(ctx context.Context, input SetInput) (*ConfirmSetResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := s.confirmSetTx(ctx, tx, input)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed after set confirmation error",
				slog.Int("match_id", input.MatchID), slog.Any("error", rbErr))
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit set confirmation for match %d: %w", input.MatchID, err)
	}

	s.broadcast(result)
	return result, nil
}

func (s *matchService) ResolveShootoff(ctx context.Context, input ShootoffInput) (*ConfirmSetResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := s.resolveShootoffTx(ctx, tx, input)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed after shoot-off error",
				slog.Int("match_id", input.MatchID), slog.Any("error", rbErr))
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit shoot-off for match %d: %w", input.MatchID, err)
	}

	s.broadcast(result)
	return result, nil
}

// confirmSetTx runs the whole read-modify-write under the caller's
// transaction: the FOR UPDATE read serializes concurrent confirmations for
// the same match, everything else follows from the confirmed-set history.
func (s *matchService) confirmSetTx(ctx context.Context, exec repositories.SQLExecutor, input SetInput) (*ConfirmSetResult, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, input.MatchID)
	if err != nil {
		return nil, err
	}
	if err := checkScorable(match, input.Number); err != nil {
		// A retry of the confirmation that completed the match must return
		// the original result instead of an error.
		if errors.Is(err, ErrMatchAlreadyCompleted) {
			if replay := s.replayedResult(ctx, exec, match, input); replay != nil {
				return replay, nil
			}
		}
		return nil, err
	}

	existing, err := s.setRepo.GetByNumber(ctx, exec, input.MatchID, input.Number)
	if err != nil && !errors.Is(err, repositories.ErrSetNotFound) {
		return nil, err
	}
	if existing != nil && existing.Confirmed {
		if !equalArrows(existing.Slot1Arrows, input.Slot1Arrows) || !equalArrows(existing.Slot2Arrows, input.Slot2Arrows) {
			return nil, ErrSetArrowsMismatch
		}
		// Identical re-confirmation: no state change, report the standing
		// as it is.
		return &ConfirmSetResult{Set: existing, Match: match}, nil
	}

	p1, p2, err := scoring.ScoreSet(input.Slot1Arrows, input.Slot2Arrows)
	if err != nil {
		return nil, err
	}

	set := &models.Set{
		MatchID:     input.MatchID,
		Number:      input.Number,
		Slot1Arrows: input.Slot1Arrows,
		Slot2Arrows: input.Slot2Arrows,
	}
	if err := s.setRepo.Upsert(ctx, exec, set); err != nil {
		return nil, err
	}
	if err := s.setRepo.Confirm(ctx, exec, set.ID, p1, p2); err != nil {
		return nil, err
	}
	set.Slot1Points, set.Slot2Points, set.Confirmed = p1, p2, true

	return s.applyOutcome(ctx, exec, match, set)
}

func (s *matchService) resolveShootoffTx(ctx context.Context, exec repositories.SQLExecutor, input ShootoffInput) (*ConfirmSetResult, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, input.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		setInput := SetInput{
			MatchID:     input.MatchID,
			Number:      models.ShootOffSetNumber,
			Slot1Arrows: []int64{input.Slot1Arrow},
			Slot2Arrows: []int64{input.Slot2Arrow},
		}
		if replay := s.replayedResult(ctx, exec, match, setInput); replay != nil {
			return replay, nil
		}
		return nil, ErrMatchAlreadyCompleted
	}
	if match.Status != models.MatchStatusShootOff {
		return nil, ErrMatchNotInShootOff
	}

	winnerSlot, err := scoring.ResolveShootoff(input.Slot1Arrow, input.Slot2Arrow, input.Slot1Distance, input.Slot2Distance)
	if err != nil {
		return nil, err
	}

	// The shoot-off is recorded as a pseudo-set under the reserved number,
	// worth a single point to the winner: a 5-5 tie becomes 6-5 and the
	// state machine completes the match off the same history as always.
	p1, p2 := 0, 0
	if winnerSlot == 1 {
		p1 = 1
	} else {
		p2 = 1
	}

	set := &models.Set{
		MatchID:       input.MatchID,
		Number:        models.ShootOffSetNumber,
		Slot1Arrows:   []int64{input.Slot1Arrow},
		Slot2Arrows:   []int64{input.Slot2Arrow},
		Slot1Distance: input.Slot1Distance,
		Slot2Distance: input.Slot2Distance,
	}
	if err := s.setRepo.Upsert(ctx, exec, set); err != nil {
		return nil, err
	}
	if err := s.setRepo.Confirm(ctx, exec, set.ID, p1, p2); err != nil {
		return nil, err
	}
	set.Slot1Points, set.Slot2Points, set.Confirmed = p1, p2, true

	return s.applyOutcome(ctx, exec, match, set)
}

// applyOutcome recomputes the match standing from the full confirmed-set
// history, persists it, and runs advancement when the match completed.
func (s *matchService) applyOutcome(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, set *models.Set) (*ConfirmSetResult, error) {
	history, err := s.setRepo.ListConfirmedByMatch(ctx, exec, match.ID)
	if err != nil {
		return nil, err
	}
	outcome := scoring.Evaluate(history)

	var winnerID *int
	if outcome.WinnerSlot != 0 {
		winnerID = match.SlotEntrant(outcome.WinnerSlot)
	}
	if err := s.matchRepo.UpdateScoreStatusWinner(ctx, exec, match.ID,
		outcome.Slot1Points, outcome.Slot2Points, outcome.Status, winnerID); err != nil {
		return nil, err
	}

	match.Slot1SetPoints = outcome.Slot1Points
	match.Slot2SetPoints = outcome.Slot2Points
	match.Status = outcome.Status
	match.WinnerEntrantID = winnerID
	match.Sets = history

	result := &ConfirmSetResult{Set: set, Match: match}

	if outcome.Status == models.MatchStatusCompleted && winnerID != nil {
		bracket, err := s.bracketRepo.GetByID(ctx, match.BracketID)
		if err != nil {
			return nil, err
		}
		completed, err := s.advance(ctx, exec, bracket, match, *winnerID)
		if err != nil {
			return nil, err
		}
		result.bracketCompleted = completed

		if err := s.advanceRoundPointer(ctx, exec, bracket, match); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// advance routes the winner into round+1 at position ceil(p/2) and, for a
// semifinal, the loser into the bronze match. Idempotent: replays write the
// same entrant into the same slot, which the no-overwrite guard allows.
// A slot held by a different entrant is a benign race, logged and ignored.
func (s *matchService) advance(ctx context.Context, exec repositories.SQLExecutor, bracket *models.Bracket, match *models.Match, winnerID int) (bool, error) {
	if match.IsBronze() {
		return false, nil
	}

	if match.Round == bracket.FinalRound() {
		if err := s.bracketRepo.SetCompleted(ctx, exec, bracket.ID); err != nil {
			return false, err
		}
		return true, nil
	}

	nextPosition := (match.Position + 1) / 2
	slot := 2
	if match.Position%2 == 1 {
		slot = 1
	}

	next, err := s.matchRepo.GetByPosition(ctx, exec, bracket.ID, match.Round+1, nextPosition)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return false, nil
		}
		return false, err
	}
	filled, err := s.matchRepo.FillSlot(ctx, exec, next.ID, slot, winnerID)
	if err != nil {
		return false, err
	}
	if !filled {
		s.logger.Warn("stale advancement ignored",
			slog.Int("match_id", match.ID),
			slog.Int("next_match_id", next.ID),
			slog.Int("slot", slot),
			slog.Any("reason", ErrStaleAdvancement))
	}

	if match.Round == bracket.SemifinalRound() && bracket.HasBronzeMatch() {
		if loser := match.OpponentOf(winnerID); loser != nil {
			if err := s.placeBronze(ctx, exec, bracket.ID, match.Position, *loser); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// placeBronze puts a semifinal loser into the bronze match: first
// semifinal's loser into slot 1, second semifinal's into slot 2.
func (s *matchService) placeBronze(ctx context.Context, exec repositories.SQLExecutor, bracketID, semifinalPosition, loserID int) error {
	bronze, err := s.matchRepo.GetByPosition(ctx, exec, bracketID, models.BronzeRound, 1)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil
		}
		return err
	}
	filled, err := s.matchRepo.FillSlot(ctx, exec, bronze.ID, semifinalPosition, loserID)
	if err != nil {
		return err
	}
	if !filled {
		s.logger.Warn("stale advancement ignored",
			slog.Int("bronze_match_id", bronze.ID),
			slog.Int("slot", semifinalPosition),
			slog.Any("reason", ErrStaleAdvancement))
	}
	return nil
}

// advanceRoundPointer moves the bracket's current round forward once every
// match of the completed match's round is terminal.
func (s *matchService) advanceRoundPointer(ctx context.Context, exec repositories.SQLExecutor, bracket *models.Bracket, match *models.Match) error {
	if match.IsBronze() || match.Round >= bracket.FinalRound() {
		return nil
	}
	unfinished, err := s.matchRepo.CountUnfinishedInRound(ctx, exec, bracket.ID, match.Round)
	if err != nil {
		return err
	}
	if unfinished > 0 || match.Round < bracket.CurrentRound {
		return nil
	}
	return s.bracketRepo.SetCurrentRound(ctx, exec, bracket.ID, match.Round+1)
}

// replayedResult recognizes an exact retry of the confirmation that
// completed the match and returns the originally derived result.
func (s *matchService) replayedResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, input SetInput) *ConfirmSetResult {
	existing, err := s.setRepo.GetByNumber(ctx, exec, input.MatchID, input.Number)
	if err != nil || !existing.Confirmed {
		return nil
	}
	if !equalArrows(existing.Slot1Arrows, input.Slot1Arrows) || !equalArrows(existing.Slot2Arrows, input.Slot2Arrows) {
		return nil
	}
	return &ConfirmSetResult{Set: existing, Match: match}
}

func (s *matchService) broadcast(result *ConfirmSetResult) {
	room := bracketRoomID(result.Match.BracketID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.EventMatchUpdated,
		Payload: result.Match,
		RoomID:  room,
	})
	if result.bracketCompleted {
		s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type:    brackets.EventBracketCompleted,
			Payload: map[string]int{"bracket_id": result.Match.BracketID},
			RoomID:  room,
		})
	}
}

func checkScorable(match *models.Match, setNumber int) error {
	if match.IsBye {
		return ErrByeMatchNotScorable
	}
	if setNumber < 1 || setNumber > models.MaxSets {
		return ErrSetNumberOutOfRange
	}
	switch match.Status {
	case models.MatchStatusCompleted:
		return ErrMatchAlreadyCompleted
	case models.MatchStatusShootOff:
		return ErrMatchAwaitingShootOff
	}
	if match.Slot1EntrantID == nil || match.Slot2EntrantID == nil {
		return ErrMatchNotPlayable
	}
	return nil
}

func equalArrows(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
