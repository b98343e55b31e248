package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
)

func TestFarmService_Create(t *testing.T) {
	var stored *domain.Farm
	repo := &mockFarmRepo{
		createFn: func(ctx context.Context, f *domain.Farm) error {
			stored = f
			return nil
		},
	}

	svc := usecases.NewFarmService(repo)
	farm := &domain.Farm{Name: "  Fazenda Santa Rita ", City: "Ribeirão Preto", State: "SP"}
	if err := svc.Create(context.Background(), farm); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("repo was not called")
	}
	if stored.Name != "Fazenda Santa Rita" {
		t.Errorf("expected trimmed name, got %q", stored.Name)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestFarmService_Create_RequiresName(t *testing.T) {
	svc := usecases.NewFarmService(&mockFarmRepo{})
	err := svc.Create(context.Background(), &domain.Farm{Name: "   "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFarmService_List(t *testing.T) {
	repo := &mockFarmRepo{
		listFn: func(ctx context.Context) ([]domain.Farm, error) {
			return []domain.Farm{{ID: "1", Name: "Santa Rita"}, {ID: "2", Name: "Boa Vista"}}, nil
		},
	}

	farms, err := usecases.NewFarmService(repo).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(farms) != 2 {
		t.Fatalf("expected 2 farms, got %d", len(farms))
	}
}

func TestFarmService_GetByID_NotFound(t *testing.T) {
	repo := &mockFarmRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Farm, error) {
			return nil, domain.ErrNotFound
		},
	}

	_, err := usecases.NewFarmService(repo).GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
