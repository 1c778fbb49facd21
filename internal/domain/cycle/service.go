package cycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	tx   TxRunner
	now  func() time.Time
}

func NewService(repo Repository, tx TxRunner) *Service {
	return &Service{repo: repo, tx: tx, now: time.Now}
}

// Create persists a new in-progress cycle. The end date is computed once
// here; a conflicting in-progress cycle for the same patient is rejected
// under row locks so two concurrent creates cannot both pass the check.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, patientName, name string, startDate time.Time, cycleDays int32) (*Cycle, error) {
	if cycleDays <= 0 {
		return nil, ErrInvalidCycleLength
	}
	c := &Cycle{
		PatientID:   patientID,
		PatientName: patientName,
		Name:        name,
		StartDate:   dateOnly(startDate),
		EndDate:     dateOnly(startDate).AddDate(0, 0, int(cycleDays)-1),
		CycleDays:   cycleDays,
		Status:      StatusInProgress,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListInProgressByPatientForUpdate(ctx, patientID)
		if err != nil {
			return fmt.Errorf("list in-progress cycles: %w", err)
		}
		for _, e := range existing {
			if !c.StartDate.After(e.EndDate) && !c.EndDate.Before(e.StartDate) {
				return ErrCycleConflict
			}
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get loads a cycle, lazily completing it when its end date has passed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Cycle, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.RefreshIfExpired(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Terminate moves an in-progress cycle to TERMINATED. A cycle that is not in
// progress, or whose natural end has already passed, cannot be terminated.
func (s *Service) Terminate(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != StatusInProgress {
			return ErrInvalidTransition
		}
		if dateOnly(s.now()).After(dateOnly(c.EndDate)) {
			return ErrInvalidTransition
		}
		return s.repo.UpdateStatus(ctx, id, StatusTerminated)
	})
}

// RefreshIfExpired lazily completes a cycle whose end date has passed.
// It returns whether the cycle is still editable afterwards.
func (s *Service) RefreshIfExpired(ctx context.Context, c *Cycle) (bool, error) {
	today := s.now()
	if c.Status == StatusInProgress && dateOnly(today).After(dateOnly(c.EndDate)) {
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			return s.repo.UpdateStatus(ctx, c.ID, StatusCompleted)
		})
		if err != nil {
			return false, err
		}
		c.Status = StatusCompleted
	}
	return ResolveRuntimeState(c, today).Editable(), nil
}

// ReconcileExpired flips every in-progress cycle whose end date precedes
// asOf to COMPLETED and returns the number of rows updated. Safe to re-run.
func (s *Service) ReconcileExpired(ctx context.Context, asOf time.Time) (int, error) {
	return s.repo.ReconcileExpired(ctx, dateOnly(asOf))
}

// CycleView is a cycle together with its derived runtime state.
type CycleView struct {
	*Cycle
	RuntimeState RuntimeState `json:"runtime_state"`
}

// ListByPatient returns the patient's cycles ordered by runtime state rank,
// most recent first within each state.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CycleView, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	today := s.now()
	views := make([]*CycleView, len(items))
	for i, c := range items {
		views[i] = &CycleView{Cycle: c, RuntimeState: ResolveRuntimeState(c, today)}
	}
	sort.SliceStable(views, func(i, j int) bool {
		ri, rj := views[i].RuntimeState.Rank(), views[j].RuntimeState.Rank()
		if ri != rj {
			return ri < rj
		}
		return views[i].StartDate.After(views[j].StartDate)
	})
	return views, total, nil
}
