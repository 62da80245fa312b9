package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/repositories"
)

// RewardOutcome records what one ranked participant received. SkillsAwarded
// and SkillRatingDelta are always non-nil objects so callers can range over
// them without a guard.
type RewardOutcome struct {
	ParticipantID    int64          `json:"participant_id"`
	Rank             int            `json:"rank"`
	XPEarned         int            `json:"xp_earned"`
	CreditsEarned    int            `json:"credits_earned"`
	SkillsAwarded    map[string]int `json:"skills_awarded"`
	SkillRatingDelta map[string]int `json:"skill_rating_delta"`
	TransactionID    *string        `json:"transaction_id,omitempty"`
}

// RewardFailure names a participant whose reward could not be applied and
// why, so operators can retry just the failed slice.
type RewardFailure struct {
	ParticipantID int64  `json:"participant_id"`
	Reason        string `json:"reason"`
}

// RewardDistributionReport is the full account of one distribution run.
type RewardDistributionReport struct {
	TournamentID  int64           `json:"tournament_id"`
	Outcomes      []RewardOutcome `json:"outcomes"`
	Failures      []RewardFailure `json:"failures"`
	DistributedAt time.Time       `json:"distributed_at"`
}

type RewardService interface {
	// DistributeRewards pays every ranked participant according to the
	// tournament's policy snapshot. Safe to call repeatedly: credit grants
	// are deduplicated by idempotency key, and skill deltas carry their own
	// application key so each participant's ratings move at most once.
	DistributeRewards(ctx context.Context, tournamentID int64) (*RewardDistributionReport, error)
}

type rewardService struct {
	tournamentRepo   repositories.TournamentRepository
	skillProfileRepo repositories.SkillProfileRepository
	rankingService   RankingService
	ledgerService    LedgerService
	logger           *slog.Logger
}

func NewRewardService(
	tournamentRepo repositories.TournamentRepository,
	skillProfileRepo repositories.SkillProfileRepository,
	rankingService RankingService,
	ledgerService LedgerService,
	logger *slog.Logger,
) RewardService {
	return &rewardService{
		tournamentRepo:   tournamentRepo,
		skillProfileRepo: skillProfileRepo,
		rankingService:   rankingService,
		ledgerService:    ledgerService,
		logger:           logger,
	}
}

// rewardIdempotencyKey is deterministic per tournament and participant so a
// re-run of the orchestrator can never double-pay.
func rewardIdempotencyKey(tournamentID, participantID int64) string {
	return fmt.Sprintf("tournament:%d:participant:%d:reward", tournamentID, participantID)
}

func refundIdempotencyKey(tournamentID, participantID int64) string {
	return fmt.Sprintf("tournament:%d:participant:%d:refund", tournamentID, participantID)
}

func (s *rewardService) DistributeRewards(ctx context.Context, tournamentID int64) (*RewardDistributionReport, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.StatusCompleted && tournament.Status != models.StatusRewardsDistributed {
		return nil, fmt.Errorf("%w: status is %s", ErrRewardsNotReady, tournament.Status)
	}
	if tournament.RewardPolicy == nil {
		return nil, ErrRewardPolicyRequired
	}

	entries, err := s.rankingService.CalculateRankings(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate rankings for tournament %d: %w", tournamentID, err)
	}

	participantIDs := make([]int64, 0, len(entries))
	for _, entry := range entries {
		participantIDs = append(participantIDs, entry.ParticipantID)
	}
	profiles, err := s.skillProfileRepo.ListByParticipantIDs(ctx, participantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to prefetch skill profiles: %w", err)
	}
	hasProfile := make(map[int64]bool, len(profiles))
	for _, profile := range profiles {
		hasProfile[profile.ParticipantID] = true
	}

	report := &RewardDistributionReport{
		TournamentID:  tournamentID,
		Outcomes:      []RewardOutcome{},
		Failures:      []RewardFailure{},
		DistributedAt: time.Now().UTC(),
	}

	for _, entry := range entries {
		outcome, distErr := s.distributeOne(ctx, tournament, entry, hasProfile[entry.ParticipantID])
		if distErr != nil {
			s.logger.Error("reward distribution failed for participant",
				slog.Int64("tournament_id", tournamentID),
				slog.Int64("participant_id", entry.ParticipantID),
				slog.String("error", distErr.Error()))
			report.Failures = append(report.Failures, RewardFailure{
				ParticipantID: entry.ParticipantID,
				Reason:        distErr.Error(),
			})
			continue
		}
		report.Outcomes = append(report.Outcomes, *outcome)
	}

	s.logger.Info("reward distribution finished",
		slog.Int64("tournament_id", tournamentID),
		slog.Int("rewarded", len(report.Outcomes)),
		slog.Int("failed", len(report.Failures)))
	return report, nil
}

func (s *rewardService) distributeOne(ctx context.Context, tournament *models.Tournament, entry models.RankingEntry, hasProfile bool) (*RewardOutcome, error) {
	tier := tournament.RewardPolicy.TierForRank(entry.Rank)
	amount := tournament.RewardPolicy.AmountFor(tier)
	if len(amount.SkillPoints) > 0 && !hasProfile {
		return nil, fmt.Errorf("%w: participant %d", repositories.ErrSkillProfileNotFound, entry.ParticipantID)
	}

	outcome := &RewardOutcome{
		ParticipantID:    entry.ParticipantID,
		Rank:             entry.Rank,
		XPEarned:         amount.XP,
		SkillsAwarded:    map[string]int{},
		SkillRatingDelta: map[string]int{},
	}

	participantID := entry.ParticipantID
	tournamentID := tournament.ID
	description := fmt.Sprintf("Reward for rank %d in tournament %q", entry.Rank, tournament.Name)

	tx, _, err := s.ledgerService.CreateTransaction(ctx, CreateTransactionParams{
		ParticipantID:  &participantID,
		Type:           models.TxReward,
		Amount:         amount.Credits,
		Description:    &description,
		IdempotencyKey: rewardIdempotencyKey(tournamentID, participantID),
		TournamentID:   &tournamentID,
	})
	if err != nil {
		return nil, fmt.Errorf("credit grant failed: %w", err)
	}
	outcome.CreditsEarned = tx.Amount
	outcome.TransactionID = &tx.ID

	// The rating update is idempotent on its own application key, not on
	// the credit row: a run that granted the credit but failed here can
	// retry and still land the deltas exactly once.
	if len(amount.SkillPoints) > 0 {
		key := rewardIdempotencyKey(tournamentID, participantID)
		if _, err := s.skillProfileRepo.ApplyDeltas(ctx, participantID, key, amount.SkillPoints); err != nil {
			return nil, fmt.Errorf("skill rating update failed: %w", err)
		}
	}
	for skill, delta := range amount.SkillPoints {
		outcome.SkillsAwarded[skill] = delta
		outcome.SkillRatingDelta[skill] = delta
	}
	return outcome, nil
}
