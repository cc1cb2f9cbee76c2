/*
advance.go - AdvanceCreditEngine: prepaid balances and the credit sweep

PURPOSE:
  Members can deposit money ahead of time. Deposits raise the member's
  running advance balance and are immediately swept into unpaid dues,
  oldest month first. Each settled slice becomes a normal PaymentRecord
  tagged source "advance_credit", so payment history stays the single
  source of truth for money applied.
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AdvanceCreditEngine struct {
	store *LedgerStore
}

func NewAdvanceCreditEngine(store *LedgerStore) *AdvanceCreditEngine {
	return &AdvanceCreditEngine{store: store}
}

// AddCredit deposits amount into the member's advance balance, records the
// deposit, then sweeps the new balance into unpaid dues oldest-first.
// Returns the deposit record and the payments the sweep produced.
func (e *AdvanceCreditEngine) AddCredit(ctx context.Context, actor Actor, memberID string, amount Amount) (*AdvanceCreditRecord, []PaymentRecord, error) {
	if err := requireAdmin(actor, "add advance credit"); err != nil {
		return nil, nil, err
	}

	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return nil, nil, &ValidationError{Field: "amount", Reason: "advance credit must be greater than zero"}
	}
	m, _ := s.findMemberLocked(memberID)
	if m == nil {
		return nil, nil, &NotFoundError{Kind: "member", ID: memberID}
	}

	m.AdvanceBalance = m.AdvanceBalance.Add(amount)
	deposit := AdvanceCreditRecord{
		ID:         uuid.NewString(),
		MemberID:   m.ID,
		MemberName: m.Name,
		Apartment:  m.Apartment,
		Amount:     amount,
		Source:     "deposit",
		Timestamp:  time.Now().UTC(),
	}
	s.advances = append(s.advances, deposit)
	s.appendAuditLocked(actor, AuditAdvanceCreditAdded, map[string]any{
		"memberId":   m.ID,
		"memberName": m.Name,
		"amount":     amount.String(),
	})

	applied := s.sweepAdvanceLocked(m)
	if len(applied) > 0 {
		s.appendAuditLocked(actor, AuditAdvanceApplied, map[string]any{
			"memberId":      m.ID,
			"memberName":    m.Name,
			"monthsSettled": len(applied),
		})
	}

	if err := s.saveMembers(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.saveAdvances(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.savePayments(ctx); err != nil {
		return nil, nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, nil, err
	}
	return &deposit, applied, nil
}

// Sweep re-runs the credit sweep for a member, settling unpaid dues from
// the advance balance. Used after the scheduler bills new months for
// members holding a balance.
func (e *AdvanceCreditEngine) Sweep(ctx context.Context, actor Actor, memberID string) ([]PaymentRecord, error) {
	if err := requireAdmin(actor, "apply advance credit"); err != nil {
		return nil, err
	}

	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _ := s.findMemberLocked(memberID)
	if m == nil {
		return nil, &NotFoundError{Kind: "member", ID: memberID}
	}

	applied := s.sweepAdvanceLocked(m)
	if len(applied) == 0 {
		return nil, nil
	}
	s.appendAuditLocked(actor, AuditAdvanceApplied, map[string]any{
		"memberId":      m.ID,
		"memberName":    m.Name,
		"monthsSettled": len(applied),
	})

	if err := s.saveMembers(ctx); err != nil {
		return nil, err
	}
	if err := s.savePayments(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	return applied, nil
}

// sweepAdvanceLocked drains the member's advance balance into unpaid dues,
// oldest (year, month) first. Partial settlement of the last reachable
// month is allowed; the remainder stays on the balance.
func (s *LedgerStore) sweepAdvanceLocked(m *Member) []PaymentRecord {
	var applied []PaymentRecord
	for _, due := range m.UnpaidDues() {
		if !m.AdvanceBalance.IsPositive() {
			break
		}
		slice := due.Outstanding().Min(m.AdvanceBalance)
		if !slice.IsPositive() {
			continue
		}
		applied = append(applied, s.applyPaymentLocked(m, due, slice, SourceAdvanceCredit))
		m.AdvanceBalance = m.AdvanceBalance.Sub(slice)
	}
	return applied
}

// MonthsCovered estimates how many months the member's current advance
// balance would cover. When the balance clears every unpaid entry, the
// surplus buys future months at the effective rate; otherwise only
// oldest-first entries the balance settles in full are counted.
func (e *AdvanceCreditEngine) MonthsCovered(memberID string, asOf MonthKey) (int64, error) {
	s := e.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, _ := s.findMemberLocked(memberID)
	if m == nil {
		return 0, &NotFoundError{Kind: "member", ID: memberID}
	}
	if !m.AdvanceBalance.IsPositive() {
		return 0, nil
	}

	unpaid := m.UnpaidDues()
	outstanding := ZeroAmount()
	for _, due := range unpaid {
		outstanding = outstanding.Add(due.Outstanding())
	}

	if m.AdvanceBalance.GreaterOrEqual(outstanding) {
		rate := s.baseRate.Add(s.activeAdjustmentLocked(memberID, asOf)).Max(ZeroAmount())
		return int64(len(unpaid)) + m.AdvanceBalance.Sub(outstanding).Div(rate), nil
	}

	remaining := m.AdvanceBalance
	var covered int64
	for _, due := range unpaid {
		if remaining.LessThan(due.Outstanding()) {
			break
		}
		covered++
		remaining = remaining.Sub(due.Outstanding())
	}
	return covered, nil
}
