package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
)

func TestPayment_FullPaymentMarksEntryPaid(t *testing.T) {
	// GIVEN: A member owing 300 for their join month
	// WHEN: Paying exactly 300
	// THEN: The entry is paid and the payment record is kept

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	key := ledger.MonthKeyOf(m.CreatedAt)

	pay := ledger.NewPaymentEngine(store)
	record, err := pay.Pay(ctx, admin, m.ID, key, amt(300))
	require.NoError(t, err)

	assert.Equal(t, m.ID, record.MemberID)
	assert.Equal(t, "Alice", record.MemberName)
	assert.Equal(t, "A-101", record.Apartment)
	assert.Equal(t, ledger.SourceDirect, record.Source)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	due := got.DueFor(key)
	assert.True(t, due.Paid)
	assert.True(t, due.Outstanding().IsZero())
}

func TestPayment_PartialPaymentLeavesEntryUnpaid(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	key := ledger.MonthKeyOf(m.CreatedAt)

	pay := ledger.NewPaymentEngine(store)
	_, err := pay.Pay(ctx, admin, m.ID, key, amt(100))
	require.NoError(t, err)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	due := got.DueFor(key)
	assert.False(t, due.Paid)
	assert.True(t, due.PaidAmount.Equal(amt(100)))
	assert.True(t, due.Outstanding().Equal(amt(200)))
}

func TestPayment_OverpaymentIsRejected(t *testing.T) {
	// GIVEN: 200 already paid against a 300 due
	// WHEN: Paying 150 more
	// THEN: The payment is rejected and nothing changes

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	key := ledger.MonthKeyOf(m.CreatedAt)

	pay := ledger.NewPaymentEngine(store)
	_, err := pay.Pay(ctx, admin, m.ID, key, amt(200))
	require.NoError(t, err)

	_, err = pay.Pay(ctx, admin, m.ID, key, amt(150))
	var excess *ledger.ExcessPaymentError
	require.ErrorAs(t, err, &excess)
	assert.True(t, excess.Outstanding.Equal(amt(100)))
	assert.True(t, excess.Requested.Equal(amt(150)))

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, got.DueFor(key).PaidAmount.Equal(amt(200)), "rejected payment must not mutate")
	assert.Len(t, store.Payments(), 1)
}

func TestPayment_RejectsNonPositiveAmountAndUnknownTargets(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	key := ledger.MonthKeyOf(m.CreatedAt)
	pay := ledger.NewPaymentEngine(store)

	_, err := pay.Pay(ctx, admin, m.ID, key, amt(0))
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = pay.Pay(ctx, admin, "nobody", key, amt(100))
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = pay.Pay(ctx, admin, m.ID, key.AddMonths(5), amt(100))
	assert.ErrorIs(t, err, ledger.ErrNotFound, "unbilled month has no entry to pay")
}

func TestPayment_RequiresAdminRole(t *testing.T) {
	store, _ := newTestStore(t)
	m := registerMember(t, store, "Alice", "A-101")

	_, err := ledger.NewPaymentEngine(store).Pay(
		context.Background(), memberActor(m), m.ID, ledger.MonthKeyOf(m.CreatedAt), amt(300))

	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestPayment_HistorySurvivesMemberDeletion(t *testing.T) {
	// GIVEN: A member with a recorded payment
	// WHEN: Hard-deleting the member
	// THEN: The payment record remains with its name and apartment snapshot

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")

	_, err := ledger.NewPaymentEngine(store).Pay(ctx, admin, m.ID, ledger.MonthKeyOf(m.CreatedAt), amt(300))
	require.NoError(t, err)

	require.NoError(t, ledger.NewMemberDirectory(store).Remove(ctx, admin, m.ID))

	_, err = store.Member(m.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	payments := store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, "Alice", payments[0].MemberName)
	assert.Equal(t, "A-101", payments[0].Apartment)
}
