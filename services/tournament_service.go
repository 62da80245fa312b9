package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/tournament-engine/brackets"
	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/repositories"
)

// CreateTournamentParams is the creation payload. The reward policy is
// snapshotted here and never re-read from a live policy source.
type CreateTournamentParams struct {
	Name             string
	TournamentTypeID int64
	Format           models.TournamentFormat
	InstructorID     *int64
	MaxParticipants  int
	EnrollmentCost   int
	FormatParams     models.FormatParams
	RewardPolicy     *models.RewardPolicySnapshot
	RegDate          time.Time
	StartDate        time.Time
}

// TransitionOptions carries per-request confirmations for guarded
// transitions.
type TransitionOptions struct {
	// ConfirmLargeTournament acknowledges a roster above the configured
	// threshold when starting match play.
	ConfirmLargeTournament bool
}

type TournamentService interface {
	CreateTournament(ctx context.Context, params CreateTournamentParams) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int64) (*models.Tournament, error)
	// Transition advances the tournament to the target status, enforcing
	// the status chain and the target's business guards. Transitioning to
	// rewards_distributed (including a repeat request against an already
	// rewards_distributed tournament) runs the reward orchestrator and
	// returns its report.
	Transition(ctx context.Context, id int64, target models.TournamentStatus, opts TransitionOptions) (*models.Tournament, *RewardDistributionReport, error)
	// OpenDueEnrollments flips every ready_for_enrollment tournament whose
	// registration date has passed to open_for_enrollment. Returns how many
	// tournaments were opened.
	OpenDueEnrollments(ctx context.Context) (int, error)
}

type tournamentService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	enrollmentRepo repositories.EnrollmentRepository
	sessionRepo    repositories.SessionRepository
	sessionService SessionService
	rankingService RankingService
	rewardService  RewardService
	ledgerService  LedgerService
	largeThreshold int
	logger         *slog.Logger
}

func NewTournamentService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	enrollmentRepo repositories.EnrollmentRepository,
	sessionRepo repositories.SessionRepository,
	sessionService SessionService,
	rankingService RankingService,
	rewardService RewardService,
	ledgerService LedgerService,
	largeThreshold int,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
		sessionService: sessionService,
		rankingService: rankingService,
		rewardService:  rewardService,
		ledgerService:  ledgerService,
		largeThreshold: largeThreshold,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, params CreateTournamentParams) (*models.Tournament, error) {
	if params.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if params.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if params.RewardPolicy == nil || len(params.RewardPolicy.Placements) == 0 {
		return nil, ErrRewardPolicyRequired
	}
	if _, err := brackets.ForFormat(params.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if params.Format == models.FormatLeague && params.MaxParticipants > brackets.MaxLeagueParticipants {
		return nil, fmt.Errorf("%w: league capacity cannot exceed %d", ErrValidationFailed, brackets.MaxLeagueParticipants)
	}
	if params.Format == models.FormatGroupKnockout {
		if params.FormatParams.NumGroups < 2 {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, brackets.ErrInvalidGroupCount)
		}
		if params.FormatParams.QualifiersPerGroup < 1 {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, brackets.ErrInvalidQualifierCount)
		}
	}

	snapshot := *params.RewardPolicy
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	tournament := &models.Tournament{
		Name:             params.Name,
		TournamentTypeID: params.TournamentTypeID,
		Format:           params.Format,
		Status:           models.StatusDraft,
		InstructorID:     params.InstructorID,
		MaxParticipants:  params.MaxParticipants,
		EnrollmentCost:   params.EnrollmentCost,
		FormatParams:     params.FormatParams,
		RewardPolicy:     &snapshot,
		RegDate:          params.RegDate,
		StartDate:        params.StartDate,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int64("tournament_id", tournament.ID),
		slog.String("format", string(tournament.Format)))
	return tournament, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int64) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Transition(ctx context.Context, id int64, target models.TournamentStatus, opts TransitionOptions) (*models.Tournament, *RewardDistributionReport, error) {
	var tournament *models.Tournament

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		tournament = t

		// Re-requesting rewards_distributed is the retry path for a
		// partially failed distribution; it is not a status change.
		if t.Status == target && target == models.StatusRewardsDistributed {
			return nil
		}
		if !models.CanTransition(t.Status, target) {
			return &InvalidTransitionError{Current: t.Status, Requested: target}
		}

		if err := s.guardTransition(ctx, exec, t, target, opts); err != nil {
			return err
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, exec, t.ID, t.Status, target); err != nil {
			return err
		}
		t.Status = target
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("tournament transitioned",
		slog.Int64("tournament_id", id),
		slog.String("status", string(tournament.Status)))

	// Reward distribution runs after the status commit; the ledger's
	// idempotency keys make a crashed or partially failed run safely
	// repeatable through the same transition.
	if target == models.StatusRewardsDistributed {
		report, err := s.rewardService.DistributeRewards(ctx, id)
		if err != nil {
			return tournament, nil, err
		}
		return tournament, report, nil
	}
	return tournament, nil, nil
}

// guardTransition enforces the business rules of each forward step. It runs
// inside the transaction that holds the tournament row lock.
func (s *tournamentService) guardTransition(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, target models.TournamentStatus, opts TransitionOptions) error {
	switch target {
	case models.StatusReadyForEnrollment:
		if t.InstructorID == nil {
			return ErrInstructorRequired
		}
	case models.StatusInProgress:
		return s.guardStart(ctx, exec, t, opts)
	case models.StatusCompleted:
		return s.guardCompletion(ctx, exec, t)
	case models.StatusRewardsDistributed:
		if t.RewardPolicy == nil {
			return ErrRewardPolicyRequired
		}
	case models.StatusCancelled:
		return s.guardCancellation(ctx, exec, t)
	}
	return nil
}

func (s *tournamentService) guardStart(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, opts TransitionOptions) error {
	enrollments, err := s.enrollmentRepo.ListByTournamentAndStatus(ctx, exec, t.ID, models.EnrollmentConfirmed)
	if err != nil {
		return err
	}
	if len(enrollments) < t.MinParticipants() {
		return fmt.Errorf("%w: have %d, need %d", ErrEnrollmentMinimumNotMet, len(enrollments), t.MinParticipants())
	}
	if len(enrollments) > s.largeThreshold && !opts.ConfirmLargeTournament {
		return fmt.Errorf("%w: %d participants, threshold %d", ErrLargeTournamentUnconfirmed, len(enrollments), s.largeThreshold)
	}

	participantIDs := make([]int64, 0, len(enrollments))
	for _, enrollment := range enrollments {
		participantIDs = append(participantIDs, enrollment.ParticipantID)
	}

	// The status guard on the UPDATE makes this generation exactly-once: a
	// concurrent start loses the status write and rolls its sessions back.
	_, err = s.sessionService.GenerateSessions(ctx, exec, t, participantIDs)
	return err
}

func (s *tournamentService) guardCompletion(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	sessions, err := s.sessionRepo.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return err
	}

	if t.Format == models.FormatGroupKnockout {
		hasKnockout := false
		for _, session := range sessions {
			if session.Phase == models.PhaseKnockout {
				hasKnockout = true
				break
			}
		}
		if !hasKnockout {
			return ErrGroupStageNotFinalized
		}
	}

	var unresolved []int64
	for _, session := range sessions {
		if !session.HasResults() {
			unresolved = append(unresolved, session.ID)
		}
	}
	if len(unresolved) > 0 {
		return &UnresolvedSessionsError{SessionIDs: unresolved}
	}
	return nil
}

// guardCancellation rejects cancellation once match play has started and
// refunds every charged enrollment. Refunds run through the ledger with
// deterministic keys, so a retried cancellation after a partial failure
// never double-refunds.
func (s *tournamentService) guardCancellation(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	if t.Status.Order() >= models.StatusInProgress.Order() {
		return fmt.Errorf("%w: status is %s", ErrCancellationTooLate, t.Status)
	}

	enrollments, err := s.enrollmentRepo.ListByTournamentAndStatus(ctx, exec, t.ID, models.EnrollmentConfirmed)
	if err != nil {
		return err
	}
	for _, enrollment := range enrollments {
		if !enrollment.CostCharged || t.EnrollmentCost <= 0 {
			continue
		}
		participantID := enrollment.ParticipantID
		tournamentID := t.ID
		enrollmentID := enrollment.ID
		description := fmt.Sprintf("Refund for cancelled tournament %q", t.Name)
		_, _, err := s.ledgerService.CreateTransaction(ctx, CreateTransactionParams{
			ParticipantID:  &participantID,
			Type:           models.TxEnrollmentRefund,
			Amount:         t.EnrollmentCost,
			Description:    &description,
			IdempotencyKey: refundIdempotencyKey(tournamentID, participantID),
			TournamentID:   &tournamentID,
			EnrollmentID:   &enrollmentID,
		})
		if err != nil {
			return fmt.Errorf("refund failed for participant %d: %w", participantID, err)
		}
	}
	return nil
}

func (s *tournamentService) OpenDueEnrollments(ctx context.Context) (int, error) {
	due, err := s.tournamentRepo.ListByStatusWithRegDateDue(ctx, models.StatusReadyForEnrollment, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list tournaments due for enrollment: %w", err)
	}

	opened := 0
	for _, t := range due {
		_, _, err := s.Transition(ctx, t.ID, models.StatusOpenForEnrollment, TransitionOptions{})
		if err != nil {
			// A conflict here just means another worker got there first.
			s.logger.Warn("failed to open enrollment",
				slog.Int64("tournament_id", t.ID),
				slog.String("error", err.Error()))
			continue
		}
		opened++
	}
	return opened, nil
}
