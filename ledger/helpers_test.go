package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
	"github.com/warp/hoa-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var admin = ledger.Actor{ID: "admin", Name: "Admin", Role: ledger.RoleAdmin}

func newTestStore(t *testing.T) (*ledger.LedgerStore, *memory.KV) {
	t.Helper()
	kv := memory.New()
	store, err := ledger.Open(context.Background(), kv, ledger.NewAmountFromInt(300))
	require.NoError(t, err)
	return store, kv
}

func registerMember(t *testing.T, store *ledger.LedgerStore, name, apartment string) *ledger.Member {
	t.Helper()
	dir := ledger.NewMemberDirectory(store)
	m, err := dir.Register(context.Background(), admin, ledger.NewMemberInput{
		Name:      name,
		Apartment: apartment,
		Contact:   "555-0100",
	})
	require.NoError(t, err)
	return m
}

func memberActor(m *ledger.Member) ledger.Actor {
	return ledger.Actor{ID: m.ID, Name: m.Name, Role: ledger.RoleMember}
}

func amt(v int64) ledger.Amount {
	return ledger.NewAmountFromInt(v)
}
