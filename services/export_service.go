package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/archery-system/models"
	"github.com/Dosada05/archery-system/repositories"
	"github.com/Dosada05/archery-system/storage"
)

// Standings are the podium of a completed bracket: the final decides gold
// and silver, the bronze match decides third and fourth place.
type Standings struct {
	BracketID int             `json:"bracket_id"`
	Group     models.GroupKey `json:"group"`
	Gold      *models.Entrant `json:"gold,omitempty"`
	Silver    *models.Entrant `json:"silver,omitempty"`
	Bronze    *models.Entrant `json:"bronze,omitempty"`
	Fourth    *models.Entrant `json:"fourth,omitempty"`

	ExportedAt time.Time `json:"exported_at"`
}

type ExportService interface {
	// BuildStandings derives the podium of a completed bracket.
	BuildStandings(ctx context.Context, bracketID int) (*Standings, error)
	// ExportStandings publishes the podium as a JSON object and returns
	// its public location.
	ExportStandings(ctx context.Context, bracketID int) (*storage.UploadResult, error)
}

type exportService struct {
	bracketRepo repositories.BracketRepository
	matchRepo   repositories.MatchRepository
	entrantRepo repositories.EntrantRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewExportService(
	bracketRepo repositories.BracketRepository,
	matchRepo repositories.MatchRepository,
	entrantRepo repositories.EntrantRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ExportService {
	return &exportService{
		bracketRepo: bracketRepo,
		matchRepo:   matchRepo,
		entrantRepo: entrantRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *exportService) BuildStandings(ctx context.Context, bracketID int) (*Standings, error) {
	bracket, err := s.bracketRepo.GetByID(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	if !bracket.IsCompleted {
		return nil, ErrBracketNotCompleted
	}

	standings := &Standings{
		BracketID:  bracket.ID,
		Group:      bracket.Group(),
		ExportedAt: time.Now().UTC(),
	}

	final, err := s.matchRepo.GetByPosition(ctx, nil, bracket.ID, bracket.FinalRound(), 1)
	if err != nil {
		return nil, err
	}
	if final.WinnerEntrantID != nil {
		if standings.Gold, err = s.entrantRepo.GetByID(ctx, *final.WinnerEntrantID); err != nil {
			return nil, err
		}
		if silverID := final.OpponentOf(*final.WinnerEntrantID); silverID != nil {
			if standings.Silver, err = s.entrantRepo.GetByID(ctx, *silverID); err != nil {
				return nil, err
			}
		}
	}

	if bracket.HasBronzeMatch() {
		bronze, err := s.matchRepo.GetByPosition(ctx, nil, bracket.ID, models.BronzeRound, 1)
		if err != nil {
			return nil, err
		}
		if bronze.WinnerEntrantID != nil {
			if standings.Bronze, err = s.entrantRepo.GetByID(ctx, *bronze.WinnerEntrantID); err != nil {
				return nil, err
			}
			if fourthID := bronze.OpponentOf(*bronze.WinnerEntrantID); fourthID != nil {
				if standings.Fourth, err = s.entrantRepo.GetByID(ctx, *fourthID); err != nil {
					return nil, err
				}
			}
		}
	}

	return standings, nil
}

func (s *exportService) ExportStandings(ctx context.Context, bracketID int) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrExportUnavailable
	}

	standings, err := s.BuildStandings(ctx, bracketID)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(standings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal standings for bracket %d: %w", bracketID, err)
	}

	key := fmt.Sprintf("results/%s/bracket_%d.json", standings.Group, bracketID)
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload standings for bracket %d: %w", bracketID, err)
	}

	s.logger.Info("standings exported",
		slog.Int("bracket_id", bracketID),
		slog.String("key", result.Key),
		slog.String("location", result.Location))
	return result, nil
}
