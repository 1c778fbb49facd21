package adherence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/platform/cache"
)

var categoryKeys = map[string]catalog.Category{
	"medication":    catalog.CategoryMedication,
	"checkup":       catalog.CategoryCheckup,
	"questionnaire": catalog.CategoryQuestionnaire,
	"monitoring":    catalog.CategoryMonitoring,
}

var metricKeys = func() map[string]bool {
	m := make(map[string]bool, len(MetricCodes))
	for _, c := range MetricCodes {
		m[c] = true
	}
	return m
}()

type Service struct {
	repo  Repository
	cache *cache.Store
}

// NewService creates the aggregator. store may be nil; results are then
// computed on every call.
func NewService(repo Repository, store *cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

// Metrics computes the adherence result for one key, which is either a task
// category (medication, checkup, questionnaire, monitoring) or a monitoring
// metric code. The monitoring category unions tasks across every metric
// sub-type into one combined rate.
func (s *Service) Metrics(ctx context.Context, patientID uuid.UUID, key string, from, to time.Time) (*Metrics, error) {
	cacheKey := fmt.Sprintf("adherence:%s:%s:%s:%s",
		patientID, key, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached Metrics
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	m, err := s.compute(ctx, patientID, key, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cacheKey, m); err != nil {
		return m, nil
	}
	return m, nil
}

func (s *Service) compute(ctx context.Context, patientID uuid.UUID, key string, from, to time.Time) (*Metrics, error) {
	if category, ok := categoryKeys[key]; ok {
		total, completed, err := s.repo.CountByCategory(ctx, patientID, category, from, to)
		if err != nil {
			return nil, err
		}
		return newMetrics(key, total, completed, from, to), nil
	}
	if metricKeys[key] {
		total, completed, err := s.repo.CountByMetric(ctx, patientID, key, from, to)
		if err != nil {
			return nil, err
		}
		return newMetrics(key, total, completed, from, to), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// BatchMetrics computes one result per key, preserving input order.
func (s *Service) BatchMetrics(ctx context.Context, patientID uuid.UUID, keys []string, from, to time.Time) ([]*Metrics, error) {
	results := make([]*Metrics, 0, len(keys))
	for _, key := range keys {
		m, err := s.Metrics(ctx, patientID, key, from, to)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, nil
}

// Monitoring returns the combined monitoring rate together with the per-type
// rates for each metric sub-type.
func (s *Service) Monitoring(ctx context.Context, patientID uuid.UUID, from, to time.Time) (*MonitoringBreakdown, error) {
	combined, err := s.Metrics(ctx, patientID, "monitoring", from, to)
	if err != nil {
		return nil, err
	}
	perType, err := s.BatchMetrics(ctx, patientID, MetricCodes, from, to)
	if err != nil {
		return nil, err
	}
	return &MonitoringBreakdown{Combined: combined, PerType: perType}, nil
}
