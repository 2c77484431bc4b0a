package category

import (
	"context"
	"errors"
	"testing"

	"github.com/xRWDev/ReTech/internal/domain"
)

type stubRepo struct {
	upserted  []domain.Category
	positions []int
	err       error
}

func (s *stubRepo) List(context.Context) ([]domain.Category, error) {
	return s.upserted, s.err
}

func (s *stubRepo) Upsert(_ context.Context, c domain.Category, position int) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, c)
	s.positions = append(s.positions, position)
	return nil
}

func TestSyncWritesTaxonomyInOrder(t *testing.T) {
	repo := &stubRepo{}
	if err := New(repo).Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(repo.upserted) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(repo.upserted))
	}
	if repo.upserted[0].Key != "smartphones" || repo.positions[0] != 1 || repo.positions[6] != 7 {
		t.Fatalf("unexpected order %+v %v", repo.upserted, repo.positions)
	}
}

func TestSyncStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	if err := New(&stubRepo{err: boom}).Sync(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
