/*
report.go - Reporter: dashboard aggregates over the ledger collections

PURPOSE:
  Read-only rollups for the admin dashboard: cash position, pending dues,
  per-month collection series, and the overdue roster. All figures are
  computed from the live collections on demand; nothing here mutates.
*/
package ledger

import "time"

type Reporter struct {
	store *LedgerStore
}

func NewReporter(store *LedgerStore) *Reporter {
	return &Reporter{store: store}
}

// MonthCollection is one point of the collection series.
type MonthCollection struct {
	Month     MonthKey `json:"month"`
	Collected Amount   `json:"collected"`
}

// OverdueMember identifies a member with two or more unpaid months.
type OverdueMember struct {
	MemberID     string `json:"memberId"`
	Name         string `json:"name"`
	Apartment    string `json:"apartment"`
	UnpaidMonths int    `json:"unpaidMonths"`
	Outstanding  Amount `json:"outstanding"`
}

// Dashboard is the full aggregate snapshot for a reference time.
type Dashboard struct {
	Month            MonthKey          `json:"month"`
	MonthlyCollected Amount            `json:"monthlyCollected"`
	TotalCollected   Amount            `json:"totalCollected"`
	MonthlyExpenses  Amount            `json:"monthlyExpenses"`
	TotalExpenses    Amount            `json:"totalExpenses"`
	Balance          Amount            `json:"balance"`
	PendingCurrent   Amount            `json:"pendingCurrent"`
	PendingTotal     Amount            `json:"pendingTotal"`
	PaidCount        int               `json:"paidCount"`
	UnpaidCount      int               `json:"unpaidCount"`
	MemberCount      int               `json:"memberCount"`
	CollectionSeries []MonthCollection `json:"collectionSeries"`
	Overdue          []OverdueMember   `json:"overdue"`
}

// BuildDashboard computes the aggregate view as of now. Pending figures
// only count months at or before the current month; future prepaid or
// billed months do not distort them.
func (r *Reporter) BuildDashboard(now time.Time) Dashboard {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := MonthKeyOf(now)
	d := Dashboard{
		Month:            current,
		MonthlyCollected: ZeroAmount(),
		TotalCollected:   ZeroAmount(),
		MonthlyExpenses:  ZeroAmount(),
		TotalExpenses:    ZeroAmount(),
		PendingCurrent:   ZeroAmount(),
		PendingTotal:     ZeroAmount(),
		MemberCount:      len(s.members),
	}

	for i := range s.payments {
		d.TotalCollected = d.TotalCollected.Add(s.payments[i].Amount)
		// Collections bucket by when the money came in, not by the
		// due month it settled.
		if MonthKeyOf(s.payments[i].Date) == current {
			d.MonthlyCollected = d.MonthlyCollected.Add(s.payments[i].Amount)
		}
	}
	for i := range s.expenses {
		d.TotalExpenses = d.TotalExpenses.Add(s.expenses[i].Amount)
		if MonthKeyOf(s.expenses[i].Date) == current {
			d.MonthlyExpenses = d.MonthlyExpenses.Add(s.expenses[i].Amount)
		}
	}
	// Balance is the current month's net, not the all-time position.
	d.Balance = d.MonthlyCollected.Sub(d.MonthlyExpenses)

	for _, m := range s.members {
		unpaid := 0
		outstanding := ZeroAmount()
		for j := range m.DuesHistory {
			due := &m.DuesHistory[j]
			if due.Month.After(current) {
				continue
			}
			if due.Month == current {
				if due.Paid {
					d.PaidCount++
				} else {
					d.UnpaidCount++
				}
				// A rate increase can reopen a paid entry without
				// clearing its flag; pending tracks the outstanding
				// amount, not the flag.
				d.PendingCurrent = d.PendingCurrent.Add(due.Outstanding())
			}
			if !due.Paid {
				unpaid++
				outstanding = outstanding.Add(due.Outstanding())
			}
		}
		d.PendingTotal = d.PendingTotal.Add(outstanding)
		if unpaid >= 2 {
			d.Overdue = append(d.Overdue, OverdueMember{
				MemberID:     m.ID,
				Name:         m.Name,
				Apartment:    m.Apartment,
				UnpaidMonths: unpaid,
				Outstanding:  outstanding,
			})
		}
	}

	d.CollectionSeries = r.collectionSeriesLocked(current, 6)
	return d
}

// CollectionSeries returns collected totals for the given number of
// months ending at the month of now, oldest first.
func (r *Reporter) CollectionSeries(now time.Time, months int) []MonthCollection {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.collectionSeriesLocked(MonthKeyOf(now), months)
}

func (r *Reporter) collectionSeriesLocked(current MonthKey, months int) []MonthCollection {
	if months <= 0 {
		return nil
	}
	s := r.store
	series := make([]MonthCollection, 0, months)
	for offset := months - 1; offset >= 0; offset-- {
		key := current.AddMonths(-offset)
		total := ZeroAmount()
		for i := range s.payments {
			if MonthKeyOf(s.payments[i].Date) == key {
				total = total.Add(s.payments[i].Amount)
			}
		}
		series = append(series, MonthCollection{Month: key, Collected: total})
	}
	return series
}
