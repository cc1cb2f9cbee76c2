/*
store.go - LedgerStore: owner of the authoritative collections

PURPOSE:
  LedgerStore is the single owner of the authoritative in-memory state.
  It loads every collection from the KV snapshot store at start and saves
  each collection after the in-memory mutation for an operation is
  complete.

LIFECYCLE:
  store := ledger.Open(ctx, kv, baseRate)   // load-at-start
  ... engines mutate under store.mu ...     // one unit per operation
  store.saveMembers(ctx) etc.               // save-after-mutation

CONSISTENCY:
  A single RWMutex serializes every engine operation: traffic is one
  admin plus an hourly background scheduler. Every multi-field mutation
  is applied fully in memory before any persistence write, so a write
  failure leaves unwritten collections at their prior in-memory value and
  nothing half-mutated.

RESET:
  Reset appends a ResetEvent to the separate reset log BEFORE clearing, and
  never clears the reset log itself. Admin credentials survive a reset.
*/
package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LedgerStore owns members, payments, expenses, feedback, receipts,
// advance-credit records, due-change records, and the audit log.
type LedgerStore struct {
	mu sync.RWMutex
	kv KV

	baseRate Amount // MONTHLY_FEE: base monthly charge before adjustments

	members    []*Member
	payments   []PaymentRecord
	expenses   []Expense
	feedback   []FeedbackItem
	receipts   []Receipt
	advances   []AdvanceCreditRecord
	dueChanges []DueChangeRecord
	audit      []AuditEntry

	// lastProcessed is the scheduler's fast-forward marker. nil means
	// "unknown": the next backfill starts from each member's creation month.
	lastProcessed *MonthKey

	creds AdminCredentials
}

// Open loads every collection from kv. A missing key yields an empty
// collection; a malformed value is a fatal PersistenceError.
func Open(ctx context.Context, kv KV, baseRate Amount) (*LedgerStore, error) {
	s := &LedgerStore{kv: kv, baseRate: baseRate}

	if err := loadCollection(ctx, kv, KeyMembers, &s.members); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyPayments, &s.payments); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyExpenses, &s.expenses); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyFeedback, &s.feedback); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyReceipts, &s.receipts); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyAdvancePayments, &s.advances); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyDueChanges, &s.dueChanges); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, kv, KeyAuditLog, &s.audit); err != nil {
		return nil, err
	}

	if err := s.loadCredentials(ctx); err != nil {
		return nil, err
	}
	s.loadMarker(ctx)

	return s, nil
}

// BaseRate is the fixed base monthly charge before adjustments.
func (s *LedgerStore) BaseRate() Amount { return s.baseRate }

// =============================================================================
// LOADING
// =============================================================================

func loadCollection[T any](ctx context.Context, kv KV, key string, dst *[]T) error {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	if !found {
		*dst = nil
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		// Present but malformed is fatal: never silently drop data.
		return &PersistenceError{Key: key, Err: err}
	}
	return nil
}

func (s *LedgerStore) loadCredentials(ctx context.Context) error {
	raw, found, err := s.kv.Get(ctx, KeyAdminCredentials)
	if err != nil {
		return &PersistenceError{Key: KeyAdminCredentials, Err: err}
	}
	if !found {
		s.creds = DefaultCredentials()
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &s.creds); err != nil {
		return &PersistenceError{Key: KeyAdminCredentials, Err: err}
	}
	return nil
}

// loadMarker reads the scheduler marker. Unlike collections, a corrupted
// marker is NOT fatal: it degrades to a full backfill, which is always
// correct because due-entry creation is idempotent.
func (s *LedgerStore) loadMarker(ctx context.Context) {
	raw, found, err := s.kv.Get(ctx, KeyLastUpdate)
	if err != nil || !found {
		s.lastProcessed = nil
		return
	}
	key, err := ParseMonthKey(raw)
	if err != nil {
		s.lastProcessed = nil
		return
	}
	s.lastProcessed = &key
}

// =============================================================================
// SAVING - One collection per call, invoked after in-memory mutation
// =============================================================================

func (s *LedgerStore) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	return nil
}

func (s *LedgerStore) saveMembers(ctx context.Context) error {
	return s.saveJSON(ctx, KeyMembers, s.members)
}
func (s *LedgerStore) savePayments(ctx context.Context) error {
	return s.saveJSON(ctx, KeyPayments, s.payments)
}
func (s *LedgerStore) saveExpenses(ctx context.Context) error {
	return s.saveJSON(ctx, KeyExpenses, s.expenses)
}
func (s *LedgerStore) saveFeedback(ctx context.Context) error {
	return s.saveJSON(ctx, KeyFeedback, s.feedback)
}
func (s *LedgerStore) saveReceipts(ctx context.Context) error {
	return s.saveJSON(ctx, KeyReceipts, s.receipts)
}
func (s *LedgerStore) saveAdvances(ctx context.Context) error {
	return s.saveJSON(ctx, KeyAdvancePayments, s.advances)
}
func (s *LedgerStore) saveDueChanges(ctx context.Context) error {
	return s.saveJSON(ctx, KeyDueChanges, s.dueChanges)
}
func (s *LedgerStore) saveAudit(ctx context.Context) error {
	return s.saveJSON(ctx, KeyAuditLog, s.audit)
}
func (s *LedgerStore) saveCredentials(ctx context.Context) error {
	return s.saveJSON(ctx, KeyAdminCredentials, s.creds)
}

func (s *LedgerStore) saveMarker(ctx context.Context, key MonthKey) error {
	s.lastProcessed = &key
	if err := s.kv.Set(ctx, KeyLastUpdate, key.String()); err != nil {
		return &PersistenceError{Key: KeyLastUpdate, Err: err}
	}
	return nil
}

// =============================================================================
// LOOKUPS (callers hold s.mu)
// =============================================================================

func (s *LedgerStore) findMemberLocked(id string) (*Member, int) {
	for i, m := range s.members {
		if m.ID == id {
			return m, i
		}
	}
	return nil, -1
}

func (s *LedgerStore) apartmentTakenLocked(apartment string) bool {
	for _, m := range s.members {
		if m.Apartment == apartment {
			return true
		}
	}
	return false
}

// appendAuditLocked appends an audit entry in memory. The caller persists
// the audit log together with the collections it mutated.
func (s *LedgerStore) appendAuditLocked(actor Actor, action AuditAction, details map[string]any) {
	s.audit = append(s.audit, AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		Details:   details,
	})
}

// =============================================================================
// READ SNAPSHOTS - Copies handed to the reporting / API layer
// =============================================================================

// Members returns a deep copy of all members.
func (s *LedgerStore) Members() []Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.membersCopyLocked()
}

func (s *LedgerStore) membersCopyLocked() []Member {
	out := make([]Member, len(s.members))
	for i, m := range s.members {
		out[i] = *m
		out[i].DuesHistory = append([]DueEntry(nil), m.DuesHistory...)
	}
	return out
}

// Member returns a deep copy of one member.
func (s *LedgerStore) Member(id string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, _ := s.findMemberLocked(id)
	if m == nil {
		return Member{}, &NotFoundError{Kind: "member", ID: id}
	}
	cp := *m
	cp.DuesHistory = append([]DueEntry(nil), m.DuesHistory...)
	return cp, nil
}

// Payments returns the payment history, most recent first.
func (s *LedgerStore) Payments() []PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PaymentRecord(nil), s.payments...)
}

func (s *LedgerStore) Expenses() []Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Expense(nil), s.expenses...)
}

func (s *LedgerStore) Feedback() []FeedbackItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FeedbackItem(nil), s.feedback...)
}

func (s *LedgerStore) Receipts() []Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Receipt(nil), s.receipts...)
}

func (s *LedgerStore) AdvanceRecords() []AdvanceCreditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AdvanceCreditRecord(nil), s.advances...)
}

func (s *LedgerStore) DueChanges() []DueChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DueChangeRecord(nil), s.dueChanges...)
}

func (s *LedgerStore) AuditEntries() []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AuditEntry(nil), s.audit...)
}

// =============================================================================
// RESET - Irreversible, audited in the surviving reset log
// =============================================================================

// Reset clears every collection after verifying the actor is an admin and
// re-confirming the admin password. The reset event is written to the
// separate reset log first; that log is never cleared.
func (s *LedgerStore) Reset(ctx context.Context, actor Actor, password string) (*ResetEvent, error) {
	if err := requireAdmin(actor, "reset all data"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if password != s.creds.Password {
		return nil, &ValidationError{Field: "password", Reason: "incorrect password"}
	}

	event := ResetEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Details: map[string]int{
			"membersCount":         len(s.members),
			"paymentsCount":        len(s.payments),
			"expensesCount":        len(s.expenses),
			"feedbackCount":        len(s.feedback),
			"receiptsCount":        len(s.receipts),
			"advancePaymentsCount": len(s.advances),
		},
	}

	// Log the reset BEFORE clearing anything.
	var log []ResetEvent
	if err := loadCollection(ctx, s.kv, KeyResetLog, &log); err != nil {
		return nil, err
	}
	log = append(log, event)
	if err := s.saveJSON(ctx, KeyResetLog, log); err != nil {
		return nil, err
	}

	for _, key := range collectionKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return nil, &PersistenceError{Key: key, Err: err}
		}
	}

	s.members = nil
	s.payments = nil
	s.expenses = nil
	s.feedback = nil
	s.receipts = nil
	s.advances = nil
	s.dueChanges = nil
	s.audit = nil
	s.lastProcessed = nil

	return &event, nil
}

// ResetLog returns the reset events that survived past resets.
func (s *LedgerStore) ResetLog(ctx context.Context) ([]ResetEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var log []ResetEvent
	if err := loadCollection(ctx, s.kv, KeyResetLog, &log); err != nil {
		return nil, err
	}
	return log, nil
}
