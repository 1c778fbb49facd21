package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetTemplate(ctx context.Context, category Category, id uuid.UUID) (*Template, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("invalid category: %s", category)
	}
	return s.repo.GetByID(ctx, category, id)
}

// GetActiveTemplate resolves a template for enabling a plan item. An inactive
// template is an error so callers cannot schedule against retired catalog rows.
func (s *Service) GetActiveTemplate(ctx context.Context, category Category, id uuid.UUID) (*Template, error) {
	t, err := s.GetTemplate(ctx, category, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrInactive
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, category Category, limit, offset int) ([]*Template, int, error) {
	if !category.Valid() {
		return nil, 0, fmt.Errorf("invalid category: %s", category)
	}
	return s.repo.ListByCategory(ctx, category, limit, offset)
}
