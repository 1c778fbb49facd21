package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mocks --

type mockRepo struct {
	cycles map[uuid.UUID]*Cycle
}

func newMockRepo() *mockRepo {
	return &mockRepo{cycles: make(map[uuid.UUID]*Cycle)}
}

func (m *mockRepo) Create(_ context.Context, c *Cycle) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.cycles[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Cycle, int, error) {
	var result []*Cycle
	for _, c := range m.cycles {
		if c.PatientID == patientID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListInProgressByPatientForUpdate(_ context.Context, patientID uuid.UUID) ([]*Cycle, error) {
	var result []*Cycle
	for _, c := range m.cycles {
		if c.PatientID == patientID && c.Status == StatusInProgress {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockRepo) ListSchedulable(_ context.Context, d time.Time) ([]*Cycle, error) {
	var result []*Cycle
	for _, c := range m.cycles {
		if !d.Before(c.StartDate) && !d.After(c.EndDate) &&
			c.Status != StatusCompleted && c.Status != StatusTerminated {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	c, ok := m.cycles[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockRepo) ReconcileExpired(_ context.Context, asOf time.Time) (int, error) {
	count := 0
	for _, c := range m.cycles {
		if c.Status == StatusInProgress && c.EndDate.Before(asOf) {
			c.Status = StatusCompleted
			count++
		}
	}
	return count, nil
}

type mockTx struct{}

func (mockTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *mockRepo, today string) *Service {
	svc := NewService(repo, mockTx{})
	svc.now = func() time.Time { return date(today) }
	return svc
}

// -- Tests --

func TestCreate_ComputesEndDate(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-01-01")
	c, err := svc.Create(context.Background(), uuid.New(), "Pat", "Cycle 1", date("2025-02-01"), 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.EndDate.Equal(date("2025-02-21")) {
		t.Fatalf("end date = %s, want 2025-02-21", c.EndDate.Format("2006-01-02"))
	}
	if c.Status != StatusInProgress {
		t.Fatalf("status = %s", c.Status)
	}
}

func TestCreate_RejectsNonPositiveLength(t *testing.T) {
	svc := newTestService(newMockRepo(), "2025-01-01")
	_, err := svc.Create(context.Background(), uuid.New(), "Pat", "Cycle", date("2025-02-01"), 0)
	if !errors.Is(err, ErrInvalidCycleLength) {
		t.Fatalf("expected ErrInvalidCycleLength, got %v", err)
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-01-20")
	patient := uuid.New()

	if _, err := svc.Create(context.Background(), patient, "Pat", "First", date("2025-01-25"), 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// [2025-02-01, 2025-02-10] overlaps [2025-01-25, 2025-02-05].
	_, err := svc.Create(context.Background(), patient, "Pat", "Second", date("2025-02-01"), 10)
	if !errors.Is(err, ErrCycleConflict) {
		t.Fatalf("expected ErrCycleConflict, got %v", err)
	}
}

func TestCreate_AllowsOverlapWithTerminated(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-01-20")
	patient := uuid.New()

	first, err := svc.Create(context.Background(), patient, "Pat", "First", date("2025-01-25"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.cycles[first.ID].Status = StatusTerminated

	if _, err := svc.Create(context.Background(), patient, "Pat", "Second", date("2025-02-01"), 10); err != nil {
		t.Fatalf("expected success over terminated cycle, got %v", err)
	}
}

func TestCreate_AllowsDisjointRanges(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-01-01")
	patient := uuid.New()

	if _, err := svc.Create(context.Background(), patient, "Pat", "First", date("2025-01-01"), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), patient, "Pat", "Second", date("2025-01-11"), 10); err != nil {
		t.Fatalf("adjacent non-overlapping cycle should be allowed, got %v", err)
	}
}

func TestTerminate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-02-10")
	patient := uuid.New()

	c, _ := svc.Create(context.Background(), patient, "Pat", "Cycle", date("2025-02-01"), 21)
	if err := svc.Terminate(context.Background(), c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.cycles[c.ID].Status != StatusTerminated {
		t.Fatalf("status = %s", repo.cycles[c.ID].Status)
	}

	if err := svc.Terminate(context.Background(), c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminating twice: expected ErrInvalidTransition, got %v", err)
	}
	if err := svc.Terminate(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTerminate_RejectsNaturallyEnded(t *testing.T) {
	repo := newMockRepo()
	create := newTestService(repo, "2025-01-01")
	c, _ := create.Create(context.Background(), uuid.New(), "Pat", "Cycle", date("2025-01-01"), 10)

	svc := newTestService(repo, "2025-02-01")
	if err := svc.Terminate(context.Background(), c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRefreshIfExpired(t *testing.T) {
	repo := newMockRepo()
	create := newTestService(repo, "2025-01-01")
	c, _ := create.Create(context.Background(), uuid.New(), "Pat", "Cycle", date("2025-01-01"), 10)

	svc := newTestService(repo, "2025-01-20")
	actionable, err := svc.RefreshIfExpired(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actionable {
		t.Fatal("expired cycle must not be actionable")
	}
	if repo.cycles[c.ID].Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", repo.cycles[c.ID].Status)
	}
}

func TestRefreshIfExpired_LeavesActiveCycleAlone(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-01-05")
	c, _ := svc.Create(context.Background(), uuid.New(), "Pat", "Cycle", date("2025-01-01"), 10)

	actionable, err := svc.RefreshIfExpired(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !actionable {
		t.Fatal("mid-cycle must remain actionable")
	}
	if repo.cycles[c.ID].Status != StatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", repo.cycles[c.ID].Status)
	}
}

func TestReconcileExpired_FlipsOnlyExpiredInProgress(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-03-01")
	patient := uuid.New()

	expired := &Cycle{PatientID: patient, StartDate: date("2025-02-01"), EndDate: date("2025-02-10"), Status: StatusInProgress}
	terminated := &Cycle{PatientID: patient, StartDate: date("2025-01-01"), EndDate: date("2025-02-10"), Status: StatusTerminated}
	active := &Cycle{PatientID: patient, StartDate: date("2025-02-20"), EndDate: date("2025-03-10"), Status: StatusInProgress}
	for _, c := range []*Cycle{expired, terminated, active} {
		repo.Create(context.Background(), c)
	}

	count, err := svc.ReconcileExpired(context.Background(), date("2025-03-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if expired.Status != StatusCompleted {
		t.Fatalf("expired cycle status = %s", expired.Status)
	}
	if terminated.Status != StatusTerminated {
		t.Fatalf("terminated cycle was touched: %s", terminated.Status)
	}
	if active.Status != StatusInProgress {
		t.Fatalf("active cycle was touched: %s", active.Status)
	}
}

func TestListByPatient_OrdersByRuntimeState(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, "2025-02-15")
	patient := uuid.New()

	completed := &Cycle{PatientID: patient, StartDate: date("2025-01-01"), EndDate: date("2025-01-10"), Status: StatusCompleted}
	inProgress := &Cycle{PatientID: patient, StartDate: date("2025-02-10"), EndDate: date("2025-02-28"), Status: StatusInProgress}
	notStarted := &Cycle{PatientID: patient, StartDate: date("2025-03-10"), EndDate: date("2025-03-20"), Status: StatusInProgress}
	terminated := &Cycle{PatientID: patient, StartDate: date("2025-01-15"), EndDate: date("2025-01-25"), Status: StatusTerminated}
	for _, c := range []*Cycle{completed, inProgress, notStarted, terminated} {
		repo.Create(context.Background(), c)
	}

	views, total, err := svc.ListByPatient(context.Background(), patient, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d", total)
	}
	want := []RuntimeState{StateInProgress, StateNotStarted, StateCompleted, StateTerminated}
	for i, w := range want {
		if views[i].RuntimeState != w {
			t.Fatalf("position %d: got %s, want %s", i, views[i].RuntimeState, w)
		}
	}
}
