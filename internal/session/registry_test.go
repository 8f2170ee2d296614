package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridstack/internal/models"
	"gridstack/internal/stack"
)

var nft = models.UseCaseTemplate{
	ID: "nft",
	Categories: []models.CategoryDefinition{
		{Name: "Wallet", ProductTypeIDs: []string{"692"}, Required: true},
		{Name: "NFT Marketplace", ProductTypeIDs: []string{"37"}, Required: true},
	},
}

func TestCreateAndWith(t *testing.T) {
	r := NewRegistry(time.Minute)
	id := r.Create(nft)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	err = r.With(id, func(s *stack.Stack) error {
		require.Equal(t, "nft", s.UseCase().ID)
		return s.AddProduct("Wallet", models.Product{ID: "w"})
	})
	require.NoError(t, err)

	err = r.With(id, func(s *stack.Stack) error {
		_, ok := s.Product("Wallet")
		assert.True(t, ok, "selection persists across calls")
		return nil
	})
	require.NoError(t, err)
}

func TestWithPropagatesError(t *testing.T) {
	r := NewRegistry(0)
	id := r.Create(nft)
	err := r.With(id, func(s *stack.Stack) error {
		return s.AddProduct("Bridge", models.Product{ID: "b"})
	})
	assert.True(t, errors.Is(err, stack.ErrUnknownCategory))
}

func TestUnknownSession(t *testing.T) {
	r := NewRegistry(0)
	err := r.With("nope", func(*stack.Stack) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, r.Delete("nope"))
}

func TestDelete(t *testing.T) {
	r := NewRegistry(0)
	id := r.Create(nft)
	assert.True(t, r.Delete(id))
	assert.Equal(t, 0, r.Len())
	assert.True(t, errors.Is(r.With(id, func(*stack.Stack) error { return nil }), ErrNotFound))
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	stale := r.Create(nft)
	now = now.Add(8 * time.Minute)
	fresh := r.Create(nft)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.True(t, errors.Is(r.With(stale, func(*stack.Stack) error { return nil }), ErrNotFound))
	assert.NoError(t, r.With(fresh, func(*stack.Stack) error { return nil }))

	// With refreshed fresh at the current time.
	now = now.Add(9 * time.Minute)
	assert.Equal(t, 0, r.Sweep())
}

func TestSweepDisabled(t *testing.T) {
	r := NewRegistry(0)
	r.Create(nft)
	assert.Equal(t, 0, r.Sweep())
}

func TestConcurrentSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = r.Create(nft)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = r.With(id, func(s *stack.Stack) error {
					if err := s.AddProduct("Wallet", models.Product{ID: "w"}); err != nil {
						return err
					}
					s.RemoveProduct("Wallet")
					return nil
				})
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		require.NoError(t, r.With(id, func(s *stack.Stack) error {
			assert.Empty(t, s.Selected())
			return nil
		}))
	}
}
