/*
scheduler.go - DuesScheduler: idempotent monthly due generation

PURPOSE:
  Ensures each member has exactly one due entry per elapsed calendar month
  from their creation month (or the system's first run) through the
  requested month, inclusive. Entries are created at the member's current
  effective rate and never overwrite existing entries or their paid state.

MARKER:
  A process-wide "last processed month" marker lets repeated invocations
  scan forward instead of from scratch. Correctness never depends on the
  marker: a missing or corrupted marker triggers a full backfill from each
  member's creation month, and creation is create-if-missing either way.

CONCURRENCY:
  Safe to run from the hourly background trigger concurrently with any
  other engine operation; the store mutex serializes, and idempotency makes
  back-to-back runs a no-op.
*/
package ledger

import "context"

type DuesScheduler struct {
	store *LedgerStore
}

func NewDuesScheduler(store *LedgerStore) *DuesScheduler {
	return &DuesScheduler{store: store}
}

// EnsureDuesUpToDate backfills due entries for every member through asOf,
// inclusive, and advances the marker. Returns the number of entries created.
func (ds *DuesScheduler) EnsureDuesUpToDate(ctx context.Context, asOf MonthKey) (int, error) {
	if !asOf.Valid() {
		return 0, &ValidationError{Field: "asOf", Reason: "month out of range"}
	}

	s := ds.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fast path: marker says this month is already processed. Entries are
	// never deleted, so a valid marker at-or-past asOf means nothing to do
	// for existing members; newly registered members get their join-month
	// entry at registration time.
	if s.lastProcessed != nil && s.lastProcessed.AfterOrEqual(asOf) && s.allMembersHaveLocked(asOf) {
		return 0, nil
	}

	created := 0
	for _, m := range s.members {
		// Scan from the later of the creation month and the month after the
		// member's last known due. Entries are never deleted, so everything
		// at or before the last due already exists.
		begin := MonthKeyOf(m.CreatedAt)
		if last, ok := lastDueMonth(m); ok {
			if next := last.Next(); next.After(begin) {
				begin = next
			}
		}

		for key := begin; key.BeforeOrEqual(asOf); key = key.Next() {
			if s.addDueForMonthLocked(m, key) {
				created++
			}
		}
	}

	if s.lastProcessed == nil || asOf.After(*s.lastProcessed) {
		if err := s.saveMarker(ctx, asOf); err != nil {
			return created, err
		}
	}
	if created > 0 {
		if err := s.saveMembers(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}

// addDueForMonthLocked creates the entry if absent at the member's current
// effective rate. Never touches an existing entry.
func (s *LedgerStore) addDueForMonthLocked(m *Member, key MonthKey) bool {
	if m.DueFor(key) != nil {
		return false
	}
	rate := s.baseRate.Add(s.activeAdjustmentLocked(m.ID, key))
	if rate.IsNegative() {
		rate = ZeroAmount()
	}
	m.DuesHistory = append(m.DuesHistory, DueEntry{
		Month:      key,
		Amount:     rate,
		PaidAmount: ZeroAmount(),
	})
	return true
}

func (s *LedgerStore) allMembersHaveLocked(key MonthKey) bool {
	for _, m := range s.members {
		if MonthKeyOf(m.CreatedAt).AfterOrEqual(key.Next()) {
			continue // joined after key; nothing owed for it
		}
		if m.DueFor(key) == nil {
			return false
		}
	}
	return true
}

func lastDueMonth(m *Member) (MonthKey, bool) {
	if len(m.DuesHistory) == 0 {
		return MonthKey{}, false
	}
	last := m.DuesHistory[0].Month
	for _, d := range m.DuesHistory[1:] {
		if d.Month.After(last) {
			last = d.Month
		}
	}
	return last, true
}
