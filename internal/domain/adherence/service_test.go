package adherence

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
)

type counts struct{ total, completed int }

type mockRepo struct {
	byCategory map[catalog.Category]counts
	byMetric   map[string]counts
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byCategory: make(map[catalog.Category]counts),
		byMetric:   make(map[string]counts),
	}
}

func (m *mockRepo) CountByCategory(_ context.Context, _ uuid.UUID, category catalog.Category, _, _ time.Time) (int, int, error) {
	c := m.byCategory[category]
	return c.total, c.completed, nil
}

func (m *mockRepo) CountByMetric(_ context.Context, _ uuid.UUID, code string, _, _ time.Time) (int, int, error) {
	c := m.byMetric[code]
	return c.total, c.completed, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMetrics_RateComputation(t *testing.T) {
	repo := newMockRepo()
	repo.byCategory[catalog.CategoryMedication] = counts{total: 3, completed: 1}
	svc := NewService(repo, nil)

	m, err := svc.Metrics(context.Background(), uuid.New(), "medication", date("2025-01-01"), date("2025-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Total != 3 || m.Completed != 1 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.Rate == nil || math.Abs(*m.Rate-1.0/3.0) > 1e-9 {
		t.Fatalf("rate = %v, want 1/3", m.Rate)
	}
}

func TestMetrics_NilRateWhenNoTasks(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	m, err := svc.Metrics(context.Background(), uuid.New(), "checkup", date("2025-01-01"), date("2025-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Total != 0 || m.Rate != nil {
		t.Fatalf("metrics = %+v, want total 0 and nil rate", m)
	}
}

func TestMetrics_UnknownKey(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Metrics(context.Background(), uuid.New(), "astrology", date("2025-01-01"), date("2025-01-31"))
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestMetrics_MetricCodeKey(t *testing.T) {
	repo := newMockRepo()
	repo.byMetric["spo2"] = counts{total: 4, completed: 4}
	svc := NewService(repo, nil)

	m, err := svc.Metrics(context.Background(), uuid.New(), "spo2", date("2025-01-01"), date("2025-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Rate == nil || *m.Rate != 1.0 {
		t.Fatalf("rate = %v, want 1.0", m.Rate)
	}
}

func TestBatchMetrics_PreservesOrder(t *testing.T) {
	repo := newMockRepo()
	repo.byCategory[catalog.CategoryMedication] = counts{total: 2, completed: 1}
	repo.byMetric["steps"] = counts{total: 5, completed: 3}
	svc := NewService(repo, nil)

	keys := []string{"steps", "medication", "questionnaire"}
	results, err := svc.BatchMetrics(context.Background(), uuid.New(), keys, date("2025-01-01"), date("2025-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len = %d", len(results))
	}
	for i, key := range keys {
		if results[i].Key != key {
			t.Fatalf("position %d: key = %s, want %s", i, results[i].Key, key)
		}
	}
}

func TestMonitoring_CombinedAndPerType(t *testing.T) {
	repo := newMockRepo()
	repo.byCategory[catalog.CategoryMonitoring] = counts{total: 10, completed: 6}
	repo.byMetric["temperature"] = counts{total: 5, completed: 4}
	repo.byMetric["spo2"] = counts{total: 5, completed: 2}
	svc := NewService(repo, nil)

	b, err := svc.Monitoring(context.Background(), uuid.New(), date("2025-01-01"), date("2025-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Combined.Total != 10 || b.Combined.Completed != 6 {
		t.Fatalf("combined = %+v", b.Combined)
	}
	if len(b.PerType) != len(MetricCodes) {
		t.Fatalf("per-type count = %d, want %d", len(b.PerType), len(MetricCodes))
	}
	if b.PerType[0].Key != "temperature" || b.PerType[0].Total != 5 {
		t.Fatalf("per-type[0] = %+v", b.PerType[0])
	}
	// weight has no tasks: nil rate, not 0%
	for _, m := range b.PerType {
		if m.Key == "weight" && (m.Total != 0 || m.Rate != nil) {
			t.Fatalf("weight = %+v", m)
		}
	}
}
