package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
)

func TestAdvance_DepositSweepsOldestMonthsFirst(t *testing.T) {
	// GIVEN: A member owing 300 for each of two billed months
	// WHEN: Depositing 1000 of advance credit
	// THEN: Both months are settled oldest-first, 400 stays on the balance

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)

	_, err := ledger.NewDuesScheduler(store).EnsureDuesUpToDate(ctx, joined.AddMonths(1))
	require.NoError(t, err)

	adv := ledger.NewAdvanceCreditEngine(store)
	deposit, applied, err := adv.AddCredit(ctx, admin, m.ID, amt(1000))
	require.NoError(t, err)

	assert.Equal(t, "deposit", deposit.Source)
	require.Len(t, applied, 2)
	assert.Equal(t, joined, applied[0].Month, "oldest month settles first")
	assert.Equal(t, joined.AddMonths(1), applied[1].Month)
	for _, p := range applied {
		assert.Equal(t, ledger.SourceAdvanceCredit, p.Source)
		assert.True(t, p.Amount.Equal(amt(300)))
	}

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, got.AdvanceBalance.Equal(amt(400)))
	assert.True(t, got.DueFor(joined).Paid)
	assert.True(t, got.DueFor(joined.AddMonths(1)).Paid)
}

func TestAdvance_PartialSettlementKeepsRemainderOnDue(t *testing.T) {
	// GIVEN: A member owing 300
	// WHEN: Depositing 120
	// THEN: The due is partially settled and the balance fully drained

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)

	_, applied, err := ledger.NewAdvanceCreditEngine(store).AddCredit(ctx, admin, m.ID, amt(120))
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].Amount.Equal(amt(120)))

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	due := got.DueFor(joined)
	assert.False(t, due.Paid)
	assert.True(t, due.Outstanding().Equal(amt(180)))
	assert.True(t, got.AdvanceBalance.IsZero())
}

func TestAdvance_SweepAfterNewMonthBilled(t *testing.T) {
	// GIVEN: A member with 400 left on their balance and a newly billed month
	// WHEN: Re-running the sweep
	// THEN: The new month is settled and 100 remains

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	adv := ledger.NewAdvanceCreditEngine(store)

	_, _, err := adv.AddCredit(ctx, admin, m.ID, amt(700))
	require.NoError(t, err)

	_, err = ledger.NewDuesScheduler(store).EnsureDuesUpToDate(ctx, joined.AddMonths(1))
	require.NoError(t, err)

	applied, err := adv.Sweep(ctx, admin, m.ID)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, joined.AddMonths(1), applied[0].Month)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, got.AdvanceBalance.Equal(amt(100)))
}

func TestAdvance_MonthsCoveredUsesEffectiveRate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	adv := ledger.NewAdvanceCreditEngine(store)

	// Settle the join month, leaving 650 on the balance.
	_, _, err := adv.AddCredit(ctx, admin, m.ID, amt(950))
	require.NoError(t, err)

	months, err := adv.MonthsCovered(m.ID, joined)
	require.NoError(t, err)
	assert.Equal(t, int64(2), months, "650 covers two months at 300")
}

func TestAdvance_MonthsCoveredCountsUnpaidEntriesPlusSurplus(t *testing.T) {
	// GIVEN: A member with 700 on the balance and one partially paid month
	//        outstanding 100
	// WHEN: Asking how many months the balance covers
	// THEN: The unpaid entry counts once and the 600 surplus buys two more

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	adv := ledger.NewAdvanceCreditEngine(store)

	// Settle the join month, leaving 700 on the balance.
	_, _, err := adv.AddCredit(ctx, admin, m.ID, amt(1000))
	require.NoError(t, err)

	next := joined.AddMonths(1)
	_, err = ledger.NewDuesScheduler(store).EnsureDuesUpToDate(ctx, next)
	require.NoError(t, err)
	_, err = ledger.NewPaymentEngine(store).Pay(ctx, admin, m.ID, next, amt(200))
	require.NoError(t, err)

	months, err := adv.MonthsCovered(m.ID, next)
	require.NoError(t, err)
	assert.Equal(t, int64(3), months, "1 open entry + floor(600/300) surplus months")
}

func TestAdvance_MonthsCoveredGreedyWhenBalanceShortOfOutstanding(t *testing.T) {
	// GIVEN: A member with 700 on the balance and three unpaid 300 months
	// WHEN: Asking how many months the balance covers
	// THEN: Only the two fully coverable oldest months count

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	adv := ledger.NewAdvanceCreditEngine(store)

	_, _, err := adv.AddCredit(ctx, admin, m.ID, amt(1000))
	require.NoError(t, err)

	asOf := joined.AddMonths(3)
	_, err = ledger.NewDuesScheduler(store).EnsureDuesUpToDate(ctx, asOf)
	require.NoError(t, err)

	months, err := adv.MonthsCovered(m.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), months, "the partially coverable third month does not count")
}

func TestAdvance_RejectsNonPositiveDeposit(t *testing.T) {
	store, _ := newTestStore(t)
	m := registerMember(t, store, "Alice", "A-101")

	_, _, err := ledger.NewAdvanceCreditEngine(store).AddCredit(
		context.Background(), admin, m.ID, amt(-50))

	assert.ErrorIs(t, err, ledger.ErrValidation)
}
