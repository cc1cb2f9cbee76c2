/*
payment.go - PaymentEngine: recording money against monthly dues

PURPOSE:
  Records payments against a single due entry. A payment never exceeds
  the entry's outstanding balance; surplus money goes through the
  advance-credit path instead. Every accepted payment produces an
  immutable PaymentRecord with denormalized member identity.
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PaymentEngine struct {
	store *LedgerStore
}

func NewPaymentEngine(store *LedgerStore) *PaymentEngine {
	return &PaymentEngine{store: store}
}

// Pay records an admin payment of amount against the member's due for key.
// Rejects zero or negative amounts, unknown members or months, and any
// amount above the entry's current outstanding balance.
func (e *PaymentEngine) Pay(ctx context.Context, actor Actor, memberID string, key MonthKey, amount Amount) (*PaymentRecord, error) {
	if err := requireAdmin(actor, "record payment"); err != nil {
		return nil, err
	}

	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "payment must be greater than zero"}
	}
	m, _ := s.findMemberLocked(memberID)
	if m == nil {
		return nil, &NotFoundError{Kind: "member", ID: memberID}
	}
	due := m.DueFor(key)
	if due == nil {
		return nil, &NotFoundError{Kind: "due entry", ID: key.String()}
	}
	outstanding := due.Outstanding()
	if amount.GreaterThan(outstanding) {
		return nil, &ExcessPaymentError{
			MemberID:    memberID,
			Month:       key,
			Outstanding: outstanding,
			Requested:   amount,
		}
	}

	record := s.applyPaymentLocked(m, due, amount, SourceDirect)
	s.appendAuditLocked(actor, AuditPaymentRecorded, map[string]any{
		"memberId":   m.ID,
		"memberName": m.Name,
		"apartment":  m.Apartment,
		"amount":     amount.String(),
		"month":      key.String(),
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
	return &record, nil
}

// applyPaymentLocked settles amount against due and appends the payment
// record. The caller has already validated amount <= outstanding and holds
// the write lock. Shared by direct payments, the advance-credit sweep, and
// receipt approval.
func (s *LedgerStore) applyPaymentLocked(m *Member, due *DueEntry, amount Amount, source PaymentSource) PaymentRecord {
	due.PaidAmount = due.PaidAmount.Add(amount)
	due.Paid = due.PaidAmount.GreaterOrEqual(due.Amount)

	record := PaymentRecord{
		ID:         uuid.NewString(),
		MemberID:   m.ID,
		MemberName: m.Name,
		Apartment:  m.Apartment,
		Amount:     amount,
		Month:      due.Month,
		Date:       time.Now().UTC(),
		Source:     source,
	}
	// History is kept most-recent-first.
	s.payments = append([]PaymentRecord{record}, s.payments...)
	return record
}
