package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

func strp(s string) *string { return &s }

func TestUpsertReplacesByID(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &harvest.VacancyRecord{ID: "42", Name: strp("first")}))
	require.NoError(t, s.Upsert(ctx, &harvest.VacancyRecord{ID: "42", Name: strp("second")}))

	require.Equal(t, 1, s.Len())
	require.Equal(t, "second", *s.Get("42").Name)
}

func TestUpsertRejectsMissingID(t *testing.T) {
	t.Parallel()

	s := NewStore()
	err := s.Upsert(context.Background(), &harvest.VacancyRecord{})
	require.Error(t, err)
	require.True(t, harvest.IsMalformed(err))
	require.Zero(t, s.Len())
}

func TestGetAbsentIsNil(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewStore().Get("missing"))
}

func TestConcurrentUpserts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%8))
			_ = s.Upsert(ctx, &harvest.VacancyRecord{ID: id})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 8, s.Len())
}
