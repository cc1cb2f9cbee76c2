/*
kv.go - Persistence boundary: key/value snapshot store

PURPOSE:
  Defines the interface between the ledger and its backing storage. Each
  collection round-trips as one JSON blob under a fixed key, the same
  last-write-wins snapshot model as the system this replaces.

CONTRACT:
  - Get on a missing key reports found=false; the ledger treats that as an
    empty collection.
  - A present-but-malformed value is a fatal load error (PersistenceError),
    never silently reset.
  - Delete removes the key; a full reset deletes every collection key but
    never KeyResetLog.

IMPLEMENTATIONS:
  - store/memory: In-memory map for tests and dev
  - store/sqlite: Durable single-table store (WAL)
*/
package ledger

import "context"

// KV is the snapshot store the ledger persists into.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Storage keys, one per collection. Kept identical to the original
// deployment's keys so existing snapshots load unchanged.
const (
	KeyMembers          = "buildingMembers"
	KeyPayments         = "paymentHistory"
	KeyExpenses         = "buildingExpenses"
	KeyLastUpdate       = "lastMonthlyUpdate"
	KeyFeedback         = "communityFeedback"
	KeyAdminCredentials = "adminCredentials"
	KeyReceipts         = "paymentReceipts"
	KeyAdvancePayments  = "advancePayments"
	KeyDueChanges       = "dueChangeHistory"
	KeyAuditLog         = "auditLog"

	// KeyResetLog survives full resets. Reset events are appended here
	// before anything is cleared.
	KeyResetLog = "systemResetLog"
)

// collectionKeys are the keys cleared by a full reset, in clearing order.
// KeyResetLog is deliberately absent.
var collectionKeys = []string{
	KeyMembers,
	KeyPayments,
	KeyExpenses,
	KeyLastUpdate,
	KeyFeedback,
	KeyReceipts,
	KeyAdvancePayments,
	KeyDueChanges,
	KeyAuditLog,
}
