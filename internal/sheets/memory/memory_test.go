package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestMirror_UpsertRemove(t *testing.T) {
	ctx := context.Background()
	m := New()

	require.NoError(t, m.Upsert(ctx, core.Transaction{ID: 2, Description: "b"}))
	require.NoError(t, m.Upsert(ctx, core.Transaction{ID: 1, Description: "a"}))
	require.NoError(t, m.Upsert(ctx, core.Transaction{ID: 2, Description: "b2"}))

	rows := m.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].ID)
	require.Equal(t, "b2", rows[1].Description)

	require.NoError(t, m.Remove(ctx, 2))
	require.NoError(t, m.Remove(ctx, 42))
	_, ok := m.Get(2)
	require.False(t, ok)
}
