package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/cycle"
	"github.com/clinicops/planengine/internal/domain/plan"
)

type Service struct {
	tasks  Repository
	cycles CycleStore
	items  ItemStore
	tx     TxRunner
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(tasks Repository, cycles CycleStore, items ItemStore, tx TxRunner, logger zerolog.Logger) *Service {
	return &Service{tasks: tasks, cycles: cycles, items: items, tx: tx, logger: logger, now: time.Now}
}

// GenerateForDate materializes the daily tasks due on date and returns the
// number of newly created rows. Re-running for the same date creates
// nothing; the store's uniqueness keys make the run idempotent. Each cycle
// is processed in its own transaction so one cycle's bad data is logged and
// skipped without failing the batch.
func (s *Service) GenerateForDate(ctx context.Context, date time.Time) (int, error) {
	cycles, err := s.cycles.ListSchedulable(ctx, date)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, cyc := range cycles {
		n, err := s.generateForCycle(ctx, cyc, date)
		if err != nil {
			s.logger.Error().Err(err).
				Str("cycle_id", cyc.ID.String()).
				Str("patient", cyc.PatientName).
				Msg("task generation failed for cycle")
			continue
		}
		created += n
	}
	return created, nil
}

func (s *Service) generateForCycle(ctx context.Context, cyc *cycle.Cycle, date time.Time) (int, error) {
	dayIdx := cycle.DayIndex(cyc.StartDate, date)
	if dayIdx <= 0 {
		return 0, nil
	}

	created := 0
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		items, err := s.items.ListActiveByCycle(ctx, cyc.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if !item.HasDay(dayIdx) {
				continue
			}
			ok, err := s.tasks.CreateIfAbsent(ctx, snapshotTask(cyc, item, date))
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// snapshotTask freezes a plan item into a dated task. The interaction
// payload is deep-copied so later edits of the plan item cannot leak in.
func snapshotTask(cyc *cycle.Cycle, item *plan.Item, date time.Time) *Task {
	cycleID := cyc.ID
	itemID := item.ID
	return &Task{
		PatientID:          cyc.PatientID,
		PlanItemID:         &itemID,
		CycleID:            &cycleID,
		TaskDate:           date,
		TaskType:           item.Category,
		MetricCode:         item.MetricCode,
		Title:              item.ItemName,
		Detail:             itemDetail(item),
		Status:             StatusPending,
		InteractionPayload: copyPayload(item.InteractionConfig),
	}
}

func itemDetail(item *plan.Item) string {
	var parts []string
	if item.Dosage != nil && *item.Dosage != "" {
		parts = append(parts, *item.Dosage)
	}
	if item.UsageNote != nil && *item.UsageNote != "" {
		parts = append(parts, *item.UsageNote)
	}
	return strings.Join(parts, " / ")
}

// CreateAdHoc creates a monitoring task not backed by a plan item, for
// example a one-off metric reading requested by a clinician. Duplicate
// requests for the same (patient, date, type, title) create nothing.
func (s *Service) CreateAdHoc(ctx context.Context, patientID uuid.UUID, date time.Time, metricCode, title, detail string) (*Task, bool, error) {
	t := &Task{
		PatientID:          patientID,
		TaskDate:           date,
		TaskType:           catalog.CategoryMonitoring,
		MetricCode:         &metricCode,
		Title:              title,
		Detail:             detail,
		Status:             StatusPending,
		InteractionPayload: map[string]interface{}{},
	}
	var created bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.tasks.CreateIfAbsent(ctx, t)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return t, created, nil
}

// Complete marks a task done. Only NOT_STARTED and PENDING tasks can be
// completed; anything else is an invalid transition.
func (s *Service) Complete(ctx context.Context, taskID uuid.UUID, at time.Time) (*Task, error) {
	var result *Task
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if t.Status != StatusNotStarted && t.Status != StatusPending {
			return ErrInvalidTransition
		}
		if err := s.tasks.UpdateStatus(ctx, taskID, StatusCompleted, &at); err != nil {
			return err
		}
		t.Status = StatusCompleted
		t.CompletedAt = &at
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListDue returns the tasks dated exactly on date.
func (s *Service) ListDue(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error) {
	return s.tasks.ListByPatientAndDate(ctx, patientID, date)
}

// ListPendingAsOf returns the tasks still open at the end of date, the feed
// consumed by the notification dispatch collaborator.
func (s *Service) ListPendingAsOf(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Task, error) {
	return s.tasks.ListPendingAsOf(ctx, patientID, date)
}
