package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	templates map[uuid.UUID]*Template
}

func newMockRepo() *mockRepo {
	return &mockRepo{templates: make(map[uuid.UUID]*Template)}
}

func (m *mockRepo) GetByID(_ context.Context, category Category, id uuid.UUID) (*Template, error) {
	t, ok := m.templates[id]
	if !ok || t.Category != category {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *mockRepo) ListByCategory(_ context.Context, category Category, limit, offset int) ([]*Template, int, error) {
	var result []*Template
	for _, t := range m.templates {
		if t.Category == category {
			result = append(result, t)
		}
	}
	return result, len(result), nil
}

func TestGetTemplate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.GetTemplate(context.Background(), CategoryMedication, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTemplate_InvalidCategory(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.GetTemplate(context.Background(), Category("BOGUS"), uuid.New()); err == nil {
		t.Fatal("expected error for invalid category")
	}
}

func TestGetActiveTemplate_RejectsInactive(t *testing.T) {
	repo := newMockRepo()
	tpl := &Template{ID: uuid.New(), Category: CategoryCheckup, Name: "Blood panel", IsActive: false}
	repo.templates[tpl.ID] = tpl

	svc := NewService(repo)
	_, err := svc.GetActiveTemplate(context.Background(), CategoryCheckup, tpl.ID)
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestGetActiveTemplate_ReturnsActive(t *testing.T) {
	repo := newMockRepo()
	tpl := &Template{ID: uuid.New(), Category: CategoryMedication, Name: "Aspirin", IsActive: true}
	repo.templates[tpl.ID] = tpl

	svc := NewService(repo)
	got, err := svc.GetActiveTemplate(context.Background(), CategoryMedication, tpl.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Aspirin" {
		t.Fatalf("got %q", got.Name)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryMedication, CategoryCheckup, CategoryQuestionnaire, CategoryMonitoring} {
		if !c.Valid() {
			t.Fatalf("%s should be valid", c)
		}
	}
	if Category("medication").Valid() {
		t.Fatal("lowercase category should be invalid")
	}
}
