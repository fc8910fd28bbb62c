package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/archery-system/brackets"
	"github.com/Dosada05/archery-system/models"
	"github.com/Dosada05/archery-system/repositories"
	"github.com/Dosada05/archery-system/scoring"
	"golang.org/x/sync/errgroup"
)

// GroupResult is the per-group outcome of a generation batch. A group with
// too few entrants yields a warning, a seeding defect yields an error;
// neither stops the other groups from generating.
type GroupResult struct {
	Group   models.GroupKey `json:"group"`
	Bracket *models.Bracket `json:"bracket,omitempty"`
	Warning string          `json:"warning,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type BracketService interface {
	// GenerateBrackets generates (or regenerates) the elimination bracket
	// of every requested group. An empty group list means all groups known
	// to the qualification subsystem.
	GenerateBrackets(ctx context.Context, groups []models.GroupKey) ([]GroupResult, error)
	GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error)
	ListBrackets(ctx context.Context) ([]*models.Bracket, error)
	ListGroups(ctx context.Context) ([]models.GroupKey, error)
	ListGroupEntrants(ctx context.Context, group models.GroupKey) ([]*models.Entrant, error)
}

type bracketService struct {
	tx          repositories.Transactor
	generator   brackets.Generator
	entrantRepo repositories.EntrantRepository
	bracketRepo repositories.BracketRepository
	matchRepo   repositories.MatchRepository
	setRepo     repositories.SetRepository
	hub         *brackets.Hub
	logger      *slog.Logger
}

func NewBracketService(
	tx repositories.Transactor,
	generator brackets.Generator,
	entrantRepo repositories.EntrantRepository,
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	setRepo repositories.SetRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tx:          tx,
		generator:   generator,
		entrantRepo: entrantRepo,
		bracketRepo: bracketRepo,
		matchRepo:   matchRepo,
		setRepo:     setRepo,
		hub:         hub,
		logger:      logger,
	}
}

func bracketRoomID(bracketID int) string {
	return fmt.Sprintf("bracket_%d", bracketID)
}

func (s *bracketService) GenerateBrackets(ctx context.Context, groups []models.GroupKey) ([]GroupResult, error) {
	if len(groups) == 0 {
		allGroups, err := s.entrantRepo.ListGroups(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list entrant groups: %w", err)
		}
		groups = allGroups
	}

	results := make([]GroupResult, len(groups))

	g, gCtx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			results[i] = GroupResult{Group: group}

			bracket, err := s.generateGroup(gCtx, group)
			switch {
			case err == nil:
				results[i].Bracket = bracket
			case errors.Is(err, brackets.ErrInsufficientEntrants):
				// Not enough archers qualified: the group is skipped, the
				// rest of the batch proceeds.
				s.logger.Warn("group skipped during bracket generation",
					slog.String("group", group.String()),
					slog.Any("reason", err))
				results[i].Warning = err.Error()
			default:
				s.logger.Error("bracket generation failed for group",
					slog.String("group", group.String()),
					slog.Any("error", err))
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].Bracket != nil {
			s.hub.BroadcastToRoom(bracketRoomID(results[i].Bracket.ID), brackets.WebSocketMessage{
				Type:    brackets.EventBracketUpdated,
				Payload: results[i].Bracket,
				RoomID:  bracketRoomID(results[i].Bracket.ID),
			})
		}
	}

	return results, nil
}

func (s *bracketService) generateGroup(ctx context.Context, group models.GroupKey) (*models.Bracket, error) {
	entrants, err := s.entrantRepo.ListByGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrants for group %s: %w", group, err)
	}

	generated, err := s.generator.Generate(ctx, entrants)
	if err != nil {
		return nil, err
	}

	bracket := &models.Bracket{
		Category:     group.Category,
		Distance:     group.Distance,
		Gender:       group.Gender,
		Size:         generated.Size,
		CurrentRound: 1,
	}

	// Regeneration discards the previous bracket and every match and set
	// under it in the same transaction, so a failure leaves the old
	// bracket untouched.
	err = s.tx.InTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.bracketRepo.DeleteByGroup(ctx, exec, group); err != nil {
			return err
		}
		if err := s.bracketRepo.Create(ctx, exec, bracket); err != nil {
			return err
		}
		for _, m := range generated.Matches {
			m.BracketID = bracket.ID
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				return err
			}
			bracket.Matches = append(bracket.Matches, *m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist bracket for group %s: %w", group, err)
	}

	s.logger.Info("bracket generated",
		slog.String("group", group.String()),
		slog.Int("bracket_id", bracket.ID),
		slog.Int("size", bracket.Size),
		slog.Int("entrants", len(entrants)))

	return bracket, nil
}

func (s *bracketService) GetBracket(ctx context.Context, bracketID int) (*models.Bracket, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		return nil, err
	}

	var (
		matches []*models.Match
		sets    []models.Set
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var mErr error
		matches, mErr = s.matchRepo.ListByBracket(gCtx, bracketID)
		return mErr
	})
	g.Go(func() error {
		var sErr error
		sets, sErr = s.setRepo.ListByBracket(gCtx, bracketID)
		return sErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket %d data: %w", bracketID, err)
	}

	setsByMatch := make(map[int][]models.Set)
	for _, set := range sets {
		setsByMatch[set.MatchID] = append(setsByMatch[set.MatchID], set)
	}

	bracket.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		m.Sets = setsByMatch[m.ID]
		healMatchTotals(m)
		bracket.Matches = append(bracket.Matches, *m)
	}
	return bracket, nil
}

// healMatchTotals re-derives the cumulative set points from the confirmed
// history, so a drifted cached counter can never survive a read. Byes have
// no history and keep their constructed result.
func healMatchTotals(m *models.Match) {
	if m.IsBye {
		return
	}
	outcome := scoring.Evaluate(m.Sets)
	m.Slot1SetPoints = outcome.Slot1Points
	m.Slot2SetPoints = outcome.Slot2Points
}

func (s *bracketService) ListBrackets(ctx context.Context) ([]*models.Bracket, error) {
	return s.bracketRepo.List(ctx)
}

func (s *bracketService) ListGroups(ctx context.Context) ([]models.GroupKey, error) {
	return s.entrantRepo.ListGroups(ctx)
}

func (s *bracketService) ListGroupEntrants(ctx context.Context, group models.GroupKey) ([]*models.Entrant, error) {
	return s.entrantRepo.ListByGroup(ctx, group)
}
