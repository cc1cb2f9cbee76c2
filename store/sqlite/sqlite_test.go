package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
	"github.com/warp/hoa-ledger/store/sqlite"
)

func newTestKV(t *testing.T) *sqlite.KV {
	t.Helper()
	kv, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKV_GetMissingKeyReportsNotFound(t *testing.T) {
	kv := newTestKV(t)

	_, found, err := kv.Get(context.Background(), "never-written")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestKV_SetGetDeleteRoundTrip(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "buildingMembers", `[{"id":"m1"}]`))

	value, found, err := kv.Get(ctx, "buildingMembers")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `[{"id":"m1"}]`, value)

	// Overwrite replaces.
	require.NoError(t, kv.Set(ctx, "buildingMembers", `[]`))
	value, _, err = kv.Get(ctx, "buildingMembers")
	require.NoError(t, err)
	assert.Equal(t, `[]`, value)

	// Delete removes; deleting again is a no-op.
	require.NoError(t, kv.Delete(ctx, "buildingMembers"))
	_, found, err = kv.Get(ctx, "buildingMembers")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, kv.Delete(ctx, "buildingMembers"))
}

func TestKV_BacksTheLedgerStore(t *testing.T) {
	// GIVEN: A ledger opened over the SQLite store
	// WHEN: Registering a member
	// THEN: The snapshot is readable through a second ledger instance

	kv := newTestKV(t)
	ctx := context.Background()

	store, err := ledger.Open(ctx, kv, ledger.NewAmountFromInt(300))
	require.NoError(t, err)

	dir := ledger.NewMemberDirectory(store)
	admin := ledger.Actor{ID: "admin", Name: "Admin", Role: ledger.RoleAdmin}
	m, err := dir.Register(ctx, admin, ledger.NewMemberInput{
		Name:      "Alice",
		Apartment: "A-101",
		Contact:   "555-0100",
	})
	require.NoError(t, err)

	reopened, err := ledger.Open(ctx, kv, ledger.NewAmountFromInt(300))
	require.NoError(t, err)

	got, err := reopened.Member(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	require.Len(t, got.DuesHistory, 1)
}
