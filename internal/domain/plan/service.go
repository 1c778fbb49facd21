package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/cycle"
)

type Service struct {
	items     Repository
	cycles    CycleStore
	templates TemplateStore
	tx        TxRunner
	now       func() time.Time
}

func NewService(items Repository, cycles CycleStore, templates TemplateStore, tx TxRunner) *Service {
	return &Service{items: items, cycles: cycles, templates: templates, tx: tx, now: time.Now}
}

// ToggleItemStatus enables or disables the plan item identified by
// (cycle, category, template). Enabling creates the item on first use,
// populating only today-and-future recommended days so history is never
// fabricated. Disabling keeps elapsed days for historical display and
// returns nil when no item exists.
func (s *Service) ToggleItemStatus(ctx context.Context, cycleID uuid.UUID, category catalog.Category, templateID uuid.UUID, enable bool) (*Item, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("invalid category: %s", category)
	}
	var result *Item
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cyc, err := s.cycles.GetByIDForUpdate(ctx, cycleID)
		if err != nil {
			return err
		}
		today := s.now()
		if !cycle.ResolveRuntimeState(cyc, today).Editable() {
			return cycle.ErrInvalidTransition
		}
		dayIdx := cycle.CurrentDayIndex(cyc.StartDate, today)

		if enable {
			result, err = s.enableItem(ctx, cyc, category, templateID, dayIdx)
		} else {
			result, err = s.disableItem(ctx, cycleID, category, templateID, dayIdx)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) enableItem(ctx context.Context, cyc *cycle.Cycle, category catalog.Category, templateID uuid.UUID, dayIdx int32) (*Item, error) {
	tpl, err := s.templates.GetByID(ctx, category, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, catalog.ErrInactive
	}

	item, err := s.items.GetByKeyForUpdate(ctx, cyc.ID, category, templateID)
	if err == ErrNotFound {
		item = &Item{
			CycleID:           cyc.ID,
			Category:          category,
			TemplateID:        templateID,
			ItemName:          tpl.Name,
			MetricCode:        tpl.MetricCode,
			Dosage:            tpl.DefaultDosage,
			UsageNote:         tpl.DefaultUsage,
			ScheduleDays:      clampDays(daysFrom(tpl.RecommendedDays, dayIdx), cyc.CycleDays),
			Status:            StatusActive,
			InteractionConfig: map[string]interface{}{},
		}
		if err := s.items.Create(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	}
	if err != nil {
		return nil, err
	}

	item.Status = StatusActive
	// A non-empty schedule reflects manual edits and is left untouched.
	if len(item.ScheduleDays) == 0 {
		item.ScheduleDays = clampDays(daysFrom(tpl.RecommendedDays, dayIdx), cyc.CycleDays)
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) disableItem(ctx context.Context, cycleID uuid.UUID, category catalog.Category, templateID uuid.UUID, dayIdx int32) (*Item, error) {
	item, err := s.items.GetByKeyForUpdate(ctx, cycleID, category, templateID)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Status = StatusDisabled
	item.ScheduleDays = daysBefore(item.ScheduleDays, dayIdx)
	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ToggleScheduleDay checks or unchecks a single day on a plan item. Elapsed
// days are immutable: toggling a day before the current day index is a no-op.
// Checking a day on a disabled item re-activates it.
func (s *Service) ToggleScheduleDay(ctx context.Context, itemID uuid.UUID, day int32, checked bool) (*Item, error) {
	var result *Item
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		cyc, err := s.cycles.GetByID(ctx, item.CycleID)
		if err != nil {
			return err
		}
		if day < 1 || day > cyc.CycleDays {
			return ErrDayOutOfRange
		}
		if day < cycle.CurrentDayIndex(cyc.StartDate, s.now()) {
			result = item
			return nil
		}
		if checked {
			item.ScheduleDays = insertDay(item.ScheduleDays, day)
			if item.Status == StatusDisabled {
				item.Status = StatusActive
			}
		} else {
			item.ScheduleDays = removeDay(item.ScheduleDays, day)
		}
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTextField updates one of the allow-listed mutable fields. JSON
// numbers arrive as float64 and are accepted for priority_level.
func (s *Service) UpdateTextField(ctx context.Context, itemID uuid.UUID, field string, value interface{}) (*Item, error) {
	var result *Item
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		switch field {
		case "dosage":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("dosage must be a string")
			}
			item.Dosage = &v
		case "usage":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("usage must be a string")
			}
			item.UsageNote = &v
		case "priority_level":
			switch v := value.(type) {
			case int:
				item.PriorityLevel = &v
			case float64:
				n := int(v)
				item.PriorityLevel = &n
			default:
				return fmt.Errorf("priority_level must be a number")
			}
		case "interaction_config":
			v, ok := value.(map[string]interface{})
			if !ok {
				return fmt.Errorf("interaction_config must be an object")
			}
			item.InteractionConfig = v
		default:
			return ErrUnsupportedField
		}
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleInteractionFlag merges {code: enabled} into the details sub-map of
// the item's interaction config.
func (s *Service) ToggleInteractionFlag(ctx context.Context, itemID uuid.UUID, code string, enabled bool) (*Item, error) {
	var result *Item
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		item, err := s.items.GetByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.InteractionConfig == nil {
			item.InteractionConfig = map[string]interface{}{}
		}
		details, _ := item.InteractionConfig["details"].(map[string]interface{})
		if details == nil {
			details = map[string]interface{}{}
		}
		details[code] = enabled
		item.InteractionConfig["details"] = details
		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) ListByCycle(ctx context.Context, cycleID uuid.UUID) ([]*Item, error) {
	return s.items.ListByCycle(ctx, cycleID)
}

// clampDays drops days beyond the cycle length so schedule_days always stays
// within [1, cycle_days].
func clampDays(days []int32, cycleDays int32) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if d >= 1 && d <= cycleDays {
			out = append(out, d)
		}
	}
	return out
}
