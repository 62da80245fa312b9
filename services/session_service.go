package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/skillforge/tournament-engine/brackets"
	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/rankings"
	"github.com/skillforge/tournament-engine/repositories"
)

type SessionService interface {
	// GenerateSessions runs the format's generator and persists the plan
	// inside the caller's transaction. Called exactly once per tournament
	// by the open_for_enrollment -> in_progress transition.
	GenerateSessions(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, participantIDs []int64) ([]*models.Session, error)
	// SubmitResult records a session's write-once result payload and, for
	// knockout sessions, advances the winner (and semifinal loser, when a
	// bronze match exists) into its deterministic next-round slot.
	SubmitResult(ctx context.Context, sessionID int64, results []models.ParticipantResult) (*models.Session, error)
	// FinalizeGroupStage computes group standings and instantiates the
	// knockout phase from the crossover-seeded qualifiers.
	FinalizeGroupStage(ctx context.Context, tournamentID int64) ([]*models.Session, error)
	ListSessions(ctx context.Context, tournamentID int64) ([]*models.Session, error)
}

type sessionService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	sessionRepo    repositories.SessionRepository
	logger         *slog.Logger
}

func NewSessionService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	sessionRepo repositories.SessionRepository,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		sessionRepo:    sessionRepo,
		logger:         logger,
	}
}

func (s *sessionService) GenerateSessions(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, participantIDs []int64) ([]*models.Session, error) {
	generator, err := brackets.ForFormat(tournament.Format)
	if err != nil {
		return nil, err
	}

	plan, err := generator.Generate(ctx, brackets.GenerateParams{
		ParticipantIDs: participantIDs,
		Params:         tournament.FormatParams,
	})
	if err != nil {
		return nil, fmt.Errorf("%s generation failed for tournament %d: %w", generator.Name(), tournament.ID, err)
	}

	sessions := plannedToSessions(tournament.ID, plan)
	if err := s.sessionRepo.CreateBatch(ctx, exec, sessions); err != nil {
		return nil, fmt.Errorf("failed to save generated sessions for tournament %d: %w", tournament.ID, err)
	}

	s.logger.Info("sessions generated",
		slog.Int64("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("session_count", len(sessions)))
	return sessions, nil
}

func (s *sessionService) SubmitResult(ctx context.Context, sessionID int64, results []models.ParticipantResult) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, session.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", session.TournamentID, err)
	}
	if tournament.Status != models.StatusInProgress {
		return nil, fmt.Errorf("%w: status is %s", ErrTournamentNotInProgress, tournament.Status)
	}

	if err := validateResults(session, results); err != nil {
		return nil, err
	}

	payload := &models.SessionResults{Entries: results}
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.sessionRepo.SetResults(ctx, exec, session.ID, payload); err != nil {
			if errors.Is(err, repositories.ErrSessionAlreadyResolved) {
				return ErrResultAlreadyRecorded
			}
			return err
		}
		session.Results = payload
		session.Status = models.SessionCompleted

		if session.Phase == models.PhaseKnockout {
			return s.advance(ctx, exec, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// advance wires the winner (and, for semifinals feeding a bronze match,
// the loser) into the stored target slot. Slot 1 occupants go to the front
// of the participant list so partially-filled sessions keep a stable
// order regardless of which feeder resolves first.
func (s *sessionService) advance(ctx context.Context, exec repositories.SQLExecutor, session *models.Session) error {
	if session.NextUID == nil && session.LoserNextUID == nil {
		return nil
	}

	all, err := s.sessionRepo.ListByTournament(ctx, exec, session.TournamentID)
	if err != nil {
		return err
	}
	byUID := make(map[string]*models.Session, len(all))
	for _, candidate := range all {
		byUID[candidate.BracketUID] = candidate
	}

	type placement struct {
		uid           string
		slot          int
		participantID int64
	}
	var placements []placement
	if session.NextUID != nil && session.WinnerSlot != nil {
		placements = append(placements, placement{*session.NextUID, *session.WinnerSlot, session.WinnerID()})
	}
	if session.LoserNextUID != nil && session.LoserSlot != nil {
		placements = append(placements, placement{*session.LoserNextUID, *session.LoserSlot, session.LoserID()})
	}

	for _, p := range placements {
		if p.participantID == 0 {
			continue
		}
		target, ok := byUID[p.uid]
		if !ok {
			return fmt.Errorf("advancement target %s not found for session %d", p.uid, session.ID)
		}
		updated := placeInSlot(target.ParticipantIDs, p.participantID, p.slot)
		if err := s.sessionRepo.UpdateParticipants(ctx, exec, target.ID, updated); err != nil {
			return err
		}
		target.ParticipantIDs = updated
	}
	return nil
}

func placeInSlot(current []int64, participantID int64, slot int) []int64 {
	for _, id := range current {
		if id == participantID {
			return current
		}
	}
	if slot == 1 {
		return append([]int64{participantID}, current...)
	}
	return append(append([]int64(nil), current...), participantID)
}

func validateResults(session *models.Session, results []models.ParticipantResult) error {
	if !session.IsResolvable() {
		return fmt.Errorf("%w: session %d has %d of %d participants",
			ErrSessionNotReady, session.ID, len(session.ParticipantIDs), session.RequiredParticipants)
	}
	if session.HasResults() {
		return ErrResultAlreadyRecorded
	}
	if len(results) != session.RequiredParticipants {
		return fmt.Errorf("%w: got %d, session %d requires %d",
			ErrResultCountMismatch, len(results), session.ID, session.RequiredParticipants)
	}

	assigned := make(map[int64]bool, len(session.ParticipantIDs))
	for _, id := range session.ParticipantIDs {
		assigned[id] = true
	}
	seen := make(map[int64]bool, len(results))
	for _, result := range results {
		if !assigned[result.ParticipantID] || seen[result.ParticipantID] {
			return fmt.Errorf("%w: participant %d in session %d",
				ErrResultParticipantMismatch, result.ParticipantID, session.ID)
		}
		seen[result.ParticipantID] = true
	}

	if session.RequiredParticipants == 2 {
		wins, losses := 0, 0
		for _, result := range results {
			if result.Outcome == nil {
				return fmt.Errorf("%w: head-to-head results require an outcome per participant", ErrResultOutcomeInvalid)
			}
			switch *result.Outcome {
			case models.OutcomeWin:
				wins++
			case models.OutcomeLoss:
				losses++
			default:
				return fmt.Errorf("%w: unknown outcome %q", ErrResultOutcomeInvalid, *result.Outcome)
			}
		}
		if wins != 1 || losses != 1 {
			return fmt.Errorf("%w: head-to-head results need exactly one win and one loss", ErrResultOutcomeInvalid)
		}
		return nil
	}

	for _, result := range results {
		if result.Placement == nil && result.Score == nil {
			return fmt.Errorf("%w: participant %d needs a placement or score", ErrResultOutcomeInvalid, result.ParticipantID)
		}
		if result.Placement != nil && (*result.Placement < 1 || *result.Placement > len(results)) {
			return fmt.Errorf("%w: placement %d out of range 1..%d", ErrResultOutcomeInvalid, *result.Placement, len(results))
		}
	}
	return nil
}

func (s *sessionService) FinalizeGroupStage(ctx context.Context, tournamentID int64) ([]*models.Session, error) {
	var created []*models.Session

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Format != models.FormatGroupKnockout {
			return ErrNotGroupKnockoutFormat
		}
		if tournament.Status != models.StatusInProgress {
			return fmt.Errorf("%w: status is %s", ErrTournamentNotInProgress, tournament.Status)
		}

		sessions, err := s.sessionRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		var unresolved []int64
		maxGroupRound := 0
		for _, session := range sessions {
			if session.Phase == models.PhaseKnockout {
				return ErrGroupStageAlreadyFinalized
			}
			if session.RoundNumber > maxGroupRound {
				maxGroupRound = session.RoundNumber
			}
			if !session.HasResults() {
				unresolved = append(unresolved, session.ID)
			}
		}
		if len(unresolved) > 0 {
			return fmt.Errorf("%w: %w", ErrGroupStageIncomplete, &UnresolvedSessionsError{SessionIDs: unresolved})
		}

		qualifiersByGroup, err := groupQualifiers(sessions, tournament.FormatParams.QualifiersPerGroup)
		if err != nil {
			return err
		}
		seeds := brackets.CrossoverOrder(qualifiersByGroup)

		generator := brackets.NewGroupKnockoutGenerator()
		plan, err := generator.GenerateKnockoutPhase(seeds, tournament.FormatParams.WithBronzeMatch, maxGroupRound)
		if err != nil {
			return fmt.Errorf("knockout phase generation failed for tournament %d: %w", tournamentID, err)
		}

		created = plannedToSessions(tournamentID, plan)
		if err := s.sessionRepo.CreateBatch(ctx, exec, created); err != nil {
			return fmt.Errorf("failed to save knockout phase for tournament %d: %w", tournamentID, err)
		}

		s.logger.Info("group stage finalized",
			slog.Int64("tournament_id", tournamentID),
			slog.Int("qualifiers", len(seeds)),
			slog.Int("knockout_sessions", len(created)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// groupQualifiers ranks every group with the league calculator and returns
// the top finishers per group, ordered by group key so crossover seeding
// is deterministic.
func groupQualifiers(sessions []*models.Session, qualifiersPerGroup int) ([][]int64, error) {
	keys := make(map[string]bool)
	for _, session := range sessions {
		if session.GroupKey != nil {
			keys[*session.GroupKey] = true
		}
	}
	orderedKeys := make([]string, 0, len(keys))
	for key := range keys {
		orderedKeys = append(orderedKeys, key)
	}
	sort.Strings(orderedKeys)

	calculator := rankings.NewLeagueCalculator()
	qualifiersByGroup := make([][]int64, 0, len(orderedKeys))
	for _, key := range orderedKeys {
		standings, err := calculator.RankGroup(sessions, key)
		if err != nil {
			return nil, fmt.Errorf("group %s ranking failed: %w", key, err)
		}
		count := qualifiersPerGroup
		if count > len(standings) {
			count = len(standings)
		}
		qualifiers := make([]int64, 0, count)
		for _, entry := range standings[:count] {
			qualifiers = append(qualifiers, entry.ParticipantID)
		}
		qualifiersByGroup = append(qualifiersByGroup, qualifiers)
	}
	return qualifiersByGroup, nil
}

func (s *sessionService) ListSessions(ctx context.Context, tournamentID int64) ([]*models.Session, error) {
	sessions, err := s.sessionRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for tournament %d: %w", tournamentID, err)
	}
	return sessions, nil
}

func plannedToSessions(tournamentID int64, plan []*brackets.PlannedSession) []*models.Session {
	sessions := make([]*models.Session, 0, len(plan))
	for _, planned := range plan {
		session := &models.Session{
			TournamentID:         tournamentID,
			Phase:                planned.Phase,
			RoundNumber:          planned.Round,
			OrderInRound:         planned.OrderInRound,
			BracketUID:           planned.UID,
			ParticipantIDs:       planned.ParticipantIDs,
			RequiredParticipants: planned.RequiredParticipants,
			Status:               models.SessionScheduled,
			NextUID:              planned.NextUID,
			WinnerSlot:           planned.WinnerSlot,
			LoserNextUID:         planned.LoserNextUID,
			LoserSlot:            planned.LoserSlot,
		}
		if planned.GroupKey != "" {
			key := planned.GroupKey
			session.GroupKey = &key
		}
		sessions = append(sessions, session)
	}
	return sessions
}
