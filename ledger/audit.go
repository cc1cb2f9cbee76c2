/*
audit.go - AuditTrail: immutable record of every mutating operation

PURPOSE:
  Appends a timestamped, attributed entry for each engine mutation. The
  other engines call the store-internal append so the entry lands in the
  same critical section as the mutation it describes; AuditTrail is the
  standalone surface for callers outside the engines.

CONTRACT:
  No validation, no failure path other than store-unavailable, which is
  fatal and propagated.
*/
package ledger

import "context"

type AuditTrail struct {
	store *LedgerStore
}

func NewAuditTrail(store *LedgerStore) *AuditTrail {
	return &AuditTrail{store: store}
}

// Record appends an immutable entry with an engine-assigned timestamp.
func (a *AuditTrail) Record(ctx context.Context, actor Actor, action AuditAction, details map[string]any) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	a.store.appendAuditLocked(actor, action, details)
	return a.store.saveAudit(ctx)
}

// Entries returns the full audit log, oldest first.
func (a *AuditTrail) Entries() []AuditEntry {
	return a.store.AuditEntries()
}
