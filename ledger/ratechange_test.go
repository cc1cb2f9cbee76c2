package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hoa-ledger/ledger"
)

func TestRateChange_GlobalIncreaseAppliesFromEffectiveMonth(t *testing.T) {
	// GIVEN: A member billed for the current month at 300
	// WHEN: A global +50 takes effect next month
	// THEN: The current month stays 300 and next month bills at 350

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	next := joined.Next()

	rates := ledger.NewRateChangeEngine(store)
	record, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeGlobal,
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(50),
		EffectiveMonth: next.Month,
		EffectiveYear:  next.Year,
		Reason:         "annual budget adjustment",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{m.ID}, record.MemberIDs, "global changes snapshot the roster")

	_, err = ledger.NewDuesScheduler(store).EnsureDuesUpToDate(ctx, next)
	require.NoError(t, err)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, got.DueFor(joined).Amount.Equal(amt(300)), "months before the effective date are untouched")
	assert.True(t, got.DueFor(next).Amount.Equal(amt(350)))
}

func TestRateChange_IncreaseReopensAlreadyPaidMonth(t *testing.T) {
	// GIVEN: The current month paid in full at 300
	// WHEN: A +50 increase takes effect in that same month
	// THEN: The entry's amount rises to 350 and it is outstanding again

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)

	_, err := ledger.NewPaymentEngine(store).Pay(ctx, admin, m.ID, joined, amt(300))
	require.NoError(t, err)

	_, err = ledger.NewRateChangeEngine(store).ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeGlobal,
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(50),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "mid-month correction",
	})
	require.NoError(t, err)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	due := got.DueFor(joined)
	assert.True(t, due.Amount.Equal(amt(350)))
	assert.True(t, due.PaidAmount.Equal(amt(300)), "prior payment is preserved")
	assert.True(t, due.Outstanding().Equal(amt(50)))
	assert.True(t, due.Paid, "paid flag is not recomputed by a rate change")
}

func TestRateChange_IndividualDecreaseOnlyTouchesTargets(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	alice := registerMember(t, store, "Alice", "A-101")
	bob := registerMember(t, store, "Bob", "B-202")
	joined := ledger.MonthKeyOf(alice.CreatedAt)

	_, err := ledger.NewRateChangeEngine(store).ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{alice.ID},
		Direction:      ledger.DirectionDecrease,
		Magnitude:      amt(100),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "hardship waiver",
	})
	require.NoError(t, err)

	gotAlice, err := store.Member(alice.ID)
	require.NoError(t, err)
	gotBob, err := store.Member(bob.ID)
	require.NoError(t, err)
	assert.True(t, gotAlice.DueFor(joined).Amount.Equal(amt(200)))
	assert.True(t, gotBob.DueFor(joined).Amount.Equal(amt(300)))
}

func TestRateChange_GlobalDecreaseCannotExceedBaseRate(t *testing.T) {
	// GIVEN: A base rate of 300
	// WHEN: Applying a global -350
	// THEN: The change is rejected even if some members are above 300

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	_, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeGlobal,
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(100),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "raise to 400",
	})
	require.NoError(t, err)

	_, err = rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeGlobal,
		Direction:      ledger.DirectionDecrease,
		Magnitude:      amt(350),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "too large",
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestRateChange_IndividualDecreaseCheckedAgainstEffectiveRate(t *testing.T) {
	// GIVEN: A member raised to 400 by an individual increase
	// WHEN: Decreasing them by 350
	// THEN: The decrease is allowed (400 - 350 = 50, not negative)

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	_, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{m.ID},
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(100),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "premium unit",
	})
	require.NoError(t, err)

	_, err = rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{m.ID},
		Direction:      ledger.DirectionDecrease,
		Magnitude:      amt(350),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "settlement",
	})
	require.NoError(t, err)

	got, err := store.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, got.DueFor(joined).Amount.Equal(amt(50)))
}

func TestRateChange_ValidationRules(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	base := ledger.RateChange{
		Scope:          ledger.ScopeGlobal,
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(50),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "ok",
	}

	blank := base
	blank.Reason = "   "
	_, err := rates.ApplyChange(ctx, admin, blank)
	assert.ErrorIs(t, err, ledger.ErrValidation, "reason is mandatory")

	zero := base
	zero.Magnitude = amt(0)
	_, err = rates.ApplyChange(ctx, admin, zero)
	assert.ErrorIs(t, err, ledger.ErrValidation, "magnitude must be positive")

	noTargets := base
	noTargets.Scope = ledger.ScopeIndividual
	_, err = rates.ApplyChange(ctx, admin, noTargets)
	assert.ErrorIs(t, err, ledger.ErrValidation, "individual change needs targets")

	unknown := base
	unknown.Scope = ledger.ScopeIndividual
	unknown.MemberIDs = []string{"nobody"}
	_, err = rates.ApplyChange(ctx, admin, unknown)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = rates.ApplyChange(ctx, memberActor(m), base)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestRateChange_ActiveAdjustmentNetsIncreasesAndDecreases(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	for _, c := range []struct {
		dir ledger.ChangeDirection
		mag int64
	}{
		{ledger.DirectionIncrease, 100},
		{ledger.DirectionDecrease, 30},
	} {
		_, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
			Scope:          ledger.ScopeIndividual,
			MemberIDs:      []string{m.ID},
			Direction:      c.dir,
			Magnitude:      amt(c.mag),
			EffectiveMonth: joined.Month,
			EffectiveYear:  joined.Year,
			Reason:         "adjustment",
		})
		require.NoError(t, err)
	}

	net := rates.ActiveAdjustment(m.ID, joined)
	assert.True(t, net.Equal(amt(70)))

	assert.True(t, rates.ActiveAdjustment(m.ID, joined.AddMonths(-1)).IsZero(),
		"changes are not active before their effective month")
}

func TestRateChange_HistoryRecordsEffectiveRate(t *testing.T) {
	// GIVEN: A member carrying a prior individual +100
	// WHEN: Applying another individual +50 to the same member
	// THEN: The record summarizes 400 -> 450, the member's actual rate

	store, _ := newTestStore(t)
	ctx := context.Background()
	m := registerMember(t, store, "Alice", "A-101")
	joined := ledger.MonthKeyOf(m.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	first, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{m.ID},
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(100),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "corner unit surcharge",
	})
	require.NoError(t, err)
	assert.True(t, first.OldAmount.Equal(amt(300)))
	assert.True(t, first.NewAmount.Equal(amt(400)))

	second, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{m.ID},
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(50),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "parking allotment",
	})
	require.NoError(t, err)
	assert.True(t, second.OldAmount.Equal(amt(400)))
	assert.True(t, second.NewAmount.Equal(amt(450)))
}

func TestRateChange_MixedRateTargetsLeaveSummaryAmountsZero(t *testing.T) {
	// GIVEN: Two members whose effective rates differ by a prior change
	// WHEN: Applying one individual increase to both at once
	// THEN: No single old/new pair is truthful, so both stay zero

	store, _ := newTestStore(t)
	ctx := context.Background()
	alice := registerMember(t, store, "Alice", "A-101")
	bob := registerMember(t, store, "Bob", "B-202")
	joined := ledger.MonthKeyOf(alice.CreatedAt)
	rates := ledger.NewRateChangeEngine(store)

	_, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{alice.ID},
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(100),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "corner unit surcharge",
	})
	require.NoError(t, err)

	record, err := rates.ApplyChange(ctx, admin, ledger.RateChange{
		Scope:          ledger.ScopeIndividual,
		MemberIDs:      []string{alice.ID, bob.ID},
		Direction:      ledger.DirectionIncrease,
		Magnitude:      amt(50),
		EffectiveMonth: joined.Month,
		EffectiveYear:  joined.Year,
		Reason:         "shared maintenance levy",
	})
	require.NoError(t, err)
	assert.True(t, record.OldAmount.IsZero())
	assert.True(t, record.NewAmount.IsZero())
	assert.True(t, record.Magnitude.Equal(amt(50)), "the magnitude still tells the delta")
}
