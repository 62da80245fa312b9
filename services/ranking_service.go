package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/rankings"
	"github.com/skillforge/tournament-engine/repositories"
)

type RankingService interface {
	// CalculateRankings loads the tournament and its sessions and returns
	// the ordered standings for the tournament's format.
	CalculateRankings(ctx context.Context, tournamentID int64) ([]models.RankingEntry, error)
	// RankSessions ranks already-loaded sessions; used inside state
	// machine transactions to avoid a second read.
	RankSessions(tournament *models.Tournament, sessions []*models.Session) ([]models.RankingEntry, error)
}

type rankingService struct {
	tournamentRepo repositories.TournamentRepository
	sessionRepo    repositories.SessionRepository
}

func NewRankingService(
	tournamentRepo repositories.TournamentRepository,
	sessionRepo repositories.SessionRepository,
) RankingService {
	return &rankingService{
		tournamentRepo: tournamentRepo,
		sessionRepo:    sessionRepo,
	}
}

func (s *rankingService) CalculateRankings(ctx context.Context, tournamentID int64) ([]models.RankingEntry, error) {
	var tournament *models.Tournament
	var sessions []*models.Session

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("%w: tournament %d: %w", ErrTournamentNotFound, tournamentID, err)
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		list, err := s.sessionRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list sessions for tournament %d: %w", tournamentID, err)
		}
		sessions = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.RankSessions(tournament, sessions)
}

func (s *rankingService) RankSessions(tournament *models.Tournament, sessions []*models.Session) ([]models.RankingEntry, error) {
	calculator, err := rankings.ForFormat(tournament.Format, tournament.FormatParams)
	if err != nil {
		return nil, err
	}
	entries, err := calculator.Rank(sessions)
	if err != nil {
		return nil, fmt.Errorf("%s ranking failed for tournament %d: %w", calculator.Name(), tournament.ID, err)
	}
	return entries, nil
}
