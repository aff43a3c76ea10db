package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRecordsIDs(t *testing.T) {
	t.Parallel()

	p := New()
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "42"))
	require.NoError(t, p.Publish(ctx, "43"))
	require.Equal(t, []string{"42", "43"}, p.Published())
	require.NoError(t, p.Close())
}

func TestFailWith(t *testing.T) {
	t.Parallel()

	p := New()
	boom := errors.New("topic gone")
	p.FailWith(boom)
	require.ErrorIs(t, p.Publish(context.Background(), "42"), boom)
	require.Empty(t, p.Published())
}
