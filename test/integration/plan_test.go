package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/plan"
)

func TestPlanItemToggle(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices()

	tplID := createTestTemplate(t, ctx, catalog.CategoryMedication, "Cisplatin", []int32{1, 3, 5}, nil)
	cyc := createTestCycle(t, ctx, svcs.Cycles, uuid.New(), today(), 21)

	t.Run("Enable", func(t *testing.T) {
		item, err := svcs.Plans.ToggleItemStatus(ctx, cyc.ID, catalog.CategoryMedication, tplID, true)
		if err != nil {
			t.Fatalf("enable: %v", err)
		}
		if item.Status != plan.StatusActive {
			t.Errorf("expected status ACTIVE, got %s", item.Status)
		}
		// Day 1 is the current day, so all recommended days are kept.
		if len(item.ScheduleDays) != 3 {
			t.Errorf("expected 3 schedule days, got %v", item.ScheduleDays)
		}
		if item.ItemName != "Cisplatin" {
			t.Errorf("expected snapshot name Cisplatin, got %s", item.ItemName)
		}
		if item.Dosage == nil || *item.Dosage != "10mg" {
			t.Errorf("expected default dosage copied, got %v", item.Dosage)
		}
	})

	t.Run("ToggleDay", func(t *testing.T) {
		items, err := svcs.Plans.ListByCycle(ctx, cyc.ID)
		if err != nil || len(items) != 1 {
			t.Fatalf("ListByCycle: %v (%d items)", err, len(items))
		}
		itemID := items[0].ID

		item, err := svcs.Plans.ToggleScheduleDay(ctx, itemID, 7, true)
		if err != nil {
			t.Fatalf("check day: %v", err)
		}
		if !item.HasDay(7) {
			t.Errorf("expected day 7 on schedule, got %v", item.ScheduleDays)
		}

		item, err = svcs.Plans.ToggleScheduleDay(ctx, itemID, 3, false)
		if err != nil {
			t.Fatalf("uncheck day: %v", err)
		}
		if item.HasDay(3) {
			t.Errorf("expected day 3 removed, got %v", item.ScheduleDays)
		}

		if _, err := svcs.Plans.ToggleScheduleDay(ctx, itemID, 22, true); !errors.Is(err, plan.ErrDayOutOfRange) {
			t.Fatalf("expected ErrDayOutOfRange, got %v", err)
		}
	})

	t.Run("UpdateFields", func(t *testing.T) {
		items, _ := svcs.Plans.ListByCycle(ctx, cyc.ID)
		itemID := items[0].ID

		item, err := svcs.Plans.UpdateTextField(ctx, itemID, "dosage", "20mg")
		if err != nil {
			t.Fatalf("update dosage: %v", err)
		}
		if item.Dosage == nil || *item.Dosage != "20mg" {
			t.Errorf("expected dosage 20mg, got %v", item.Dosage)
		}

		if _, err := svcs.Plans.UpdateTextField(ctx, itemID, "item_name", "x"); !errors.Is(err, plan.ErrUnsupportedField) {
			t.Fatalf("expected ErrUnsupportedField, got %v", err)
		}
	})

	t.Run("Disable", func(t *testing.T) {
		item, err := svcs.Plans.ToggleItemStatus(ctx, cyc.ID, catalog.CategoryMedication, tplID, false)
		if err != nil {
			t.Fatalf("disable: %v", err)
		}
		if item.Status != plan.StatusDisabled {
			t.Errorf("expected status DISABLED, got %s", item.Status)
		}
		// Day 1 is current, so no elapsed days survive.
		if len(item.ScheduleDays) != 0 {
			t.Errorf("expected empty schedule after disable, got %v", item.ScheduleDays)
		}
	})

	t.Run("Disable_Missing", func(t *testing.T) {
		item, err := svcs.Plans.ToggleItemStatus(ctx, cyc.ID, catalog.CategoryMedication, uuid.New(), false)
		if err != nil {
			t.Fatalf("disable missing: %v", err)
		}
		if item != nil {
			t.Fatalf("expected nil item for never-enabled template, got %+v", item)
		}
	})
}

func TestPlanItemInteractionFlag(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices()

	tplID := createTestTemplate(t, ctx, catalog.CategoryMedication, "Warfarin", []int32{1, 2}, nil)
	cyc := createTestCycle(t, ctx, svcs.Cycles, uuid.New(), today(), 14)

	item, err := svcs.Plans.ToggleItemStatus(ctx, cyc.ID, catalog.CategoryMedication, tplID, true)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}

	item, err = svcs.Plans.ToggleInteractionFlag(ctx, item.ID, "grapefruit", true)
	if err != nil {
		t.Fatalf("toggle flag: %v", err)
	}
	details, ok := item.InteractionConfig["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected details map, got %v", item.InteractionConfig)
	}
	if enabled, _ := details["grapefruit"].(bool); !enabled {
		t.Errorf("expected grapefruit flag enabled, got %v", details)
	}

	// Round-trips through jsonb.
	reloaded, err := svcs.Plans.ListByCycle(ctx, cyc.ID)
	if err != nil || len(reloaded) != 1 {
		t.Fatalf("reload: %v", err)
	}
	details, ok = reloaded[0].InteractionConfig["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected persisted details map, got %v", reloaded[0].InteractionConfig)
	}
	if enabled, _ := details["grapefruit"].(bool); !enabled {
		t.Errorf("expected persisted grapefruit flag, got %v", details)
	}
}
