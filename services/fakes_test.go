package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/skillforge/tournament-engine/models"
	"github.com/skillforge/tournament-engine/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxManager runs the callback without a real transaction; the fakes
// below apply writes immediately.
type fakeTxManager struct{}

func (f *fakeTxManager) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int64
	tournaments map[int64]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: map[int64]*models.Tournament{}}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int64) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int64, from, to models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != from {
		return repositories.ErrTournamentStatusConflict
	}
	t.Status = to
	return nil
}

func (r *fakeTournamentRepo) ListByStatusWithRegDateDue(_ context.Context, status models.TournamentStatus, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Status == status && !t.RegDate.After(now) {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{nextID: 1, sessions: map[int64]*models.Session{}}
}

func (r *fakeSessionRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, sessions []*models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range sessions {
		s.ID = r.nextID
		r.nextID++
		s.CreatedAt = time.Now()
		copied := *s
		r.sessions[s.ID] = &copied
	}
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id int64) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int64) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Session
	for _, s := range r.sessions {
		if s.TournamentID == tournamentID {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSessionRepo) SetResults(_ context.Context, _ repositories.SQLExecutor, id int64, results *models.SessionResults) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repositories.ErrSessionNotFound
	}
	if s.Results != nil {
		return repositories.ErrSessionAlreadyResolved
	}
	s.Results = results
	s.Status = models.SessionCompleted
	return nil
}

func (r *fakeSessionRepo) UpdateParticipants(_ context.Context, _ repositories.SQLExecutor, id int64, participantIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repositories.ErrSessionNotFound
	}
	s.ParticipantIDs = append([]int64(nil), participantIDs...)
	return nil
}

type fakeEnrollmentRepo struct {
	enrollments []*models.Enrollment
}

func (r *fakeEnrollmentRepo) CountByTournamentAndStatus(_ context.Context, _ repositories.SQLExecutor, tournamentID int64, status models.EnrollmentStatus) (int, error) {
	count := 0
	for _, e := range r.enrollments {
		if e.TournamentID == tournamentID && e.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeEnrollmentRepo) ListByTournamentAndStatus(_ context.Context, _ repositories.SQLExecutor, tournamentID int64, status models.EnrollmentStatus) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range r.enrollments {
		if e.TournamentID == tournamentID && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeTransactionRepo struct {
	mu       sync.Mutex
	byKey    map[string]*models.CreditTransaction
	order    []string
	failKeys map[string]error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byKey: map[string]*models.CreditTransaction{}, failKeys: map[string]error{}}
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *models.CreditTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failKeys[tx.IdempotencyKey]; ok {
		return err
	}
	if _, exists := r.byKey[tx.IdempotencyKey]; exists {
		return repositories.ErrTransactionKeyConflict
	}
	tx.CreatedAt = time.Now()
	copied := *tx
	r.byKey[tx.IdempotencyKey] = &copied
	r.order = append(r.order, tx.IdempotencyKey)
	return nil
}

func (r *fakeTransactionRepo) GetByIdempotencyKey(_ context.Context, key string) (*models.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byKey[key]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *fakeTransactionRepo) LastBalance(_ context.Context, participantID, licenseID *int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance := 0
	for _, key := range r.order {
		tx := r.byKey[key]
		switch {
		case participantID != nil && tx.ParticipantID != nil && *tx.ParticipantID == *participantID:
			balance = tx.BalanceAfter
		case licenseID != nil && tx.LicenseID != nil && *tx.LicenseID == *licenseID:
			balance = tx.BalanceAfter
		}
	}
	return balance, nil
}

func (r *fakeTransactionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

type fakeSkillProfileRepo struct {
	mu         sync.Mutex
	profiles   map[int64]*models.SkillProfile
	applied    map[string]bool
	applyCount map[int64]int
	failFor    map[int64]error
}

func newFakeSkillProfileRepo(participantIDs ...int64) *fakeSkillProfileRepo {
	r := &fakeSkillProfileRepo{
		profiles:   map[int64]*models.SkillProfile{},
		applied:    map[string]bool{},
		applyCount: map[int64]int{},
		failFor:    map[int64]error{},
	}
	for _, id := range participantIDs {
		r.profiles[id] = &models.SkillProfile{ParticipantID: id, Ratings: map[string]int{}}
	}
	return r
}

func (r *fakeSkillProfileRepo) ListByParticipantIDs(_ context.Context, participantIDs []int64) ([]*models.SkillProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SkillProfile
	for _, id := range participantIDs {
		if p, ok := r.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeSkillProfileRepo) ApplyDeltas(_ context.Context, participantID int64, applicationKey string, deltas map[string]int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[participantID]; ok {
		return false, err
	}
	if r.applied[applicationKey] {
		return false, nil
	}
	p, ok := r.profiles[participantID]
	if !ok {
		return false, repositories.ErrSkillProfileNotFound
	}
	for skill, delta := range deltas {
		p.Ratings[skill] += delta
	}
	r.applied[applicationKey] = true
	r.applyCount[participantID]++
	return true, nil
}
