package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
)

func TestMembers_RegistrationBillsJoinMonth(t *testing.T) {
	store, _ := newTestStore(t)
	m := registerMember(t, store, "Alice", "A-101")

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	require.Len(t, got.DuesHistory, 1)
	assert.Equal(t, ledger.MonthKeyOf(got.CreatedAt), got.DuesHistory[0].Month)
	assert.True(t, got.DuesHistory[0].Amount.Equal(amt(300)))
	assert.True(t, got.AdvanceBalance.IsZero())
}

func TestMembers_RegistrationValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	dir := ledger.NewMemberDirectory(store)

	cases := []ledger.NewMemberInput{
		{Name: "", Apartment: "A-101", Contact: "555"},
		{Name: "Alice", Apartment: "  ", Contact: "555"},
		{Name: "Alice", Apartment: "A-101", Contact: ""},
	}
	for _, in := range cases {
		_, err := dir.Register(ctx, admin, in)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	}

	m := registerMember(t, store, "Alice", "A-101")
	_, err := dir.Register(ctx, memberActor(m), ledger.NewMemberInput{
		Name: "Bob", Apartment: "B-202", Contact: "555",
	})
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestMembers_LoginMatchesNameCaseInsensitive(t *testing.T) {
	// GIVEN: A registered member "Alice Smith" in A-101
	// WHEN: Logging in as "alice smith" with apartment A-101
	// THEN: The login succeeds; a wrong apartment or name fails

	store, _ := newTestStore(t)
	registerMember(t, store, "Alice Smith", "A-101")
	dir := ledger.NewMemberDirectory(store)

	m, ok := dir.FindByLogin("  alice smith ", "A-101")
	require.True(t, ok)
	assert.Equal(t, "Alice Smith", m.Name)

	_, ok = dir.FindByLogin("alice smith", "B-202")
	assert.False(t, ok, "apartment acts as the password")

	_, ok = dir.FindByLogin("bob", "A-101")
	assert.False(t, ok)
}

func TestMembers_RemoveUnknownMember(t *testing.T) {
	store, _ := newTestStore(t)

	err := ledger.NewMemberDirectory(store).Remove(context.Background(), admin, "nobody")

	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
