/*
ratechange.go - RateChangeEngine: effective-dated due adjustments

PURPOSE:
  Applies global or per-member increase/decrease deltas to due entries at
  or after an effective (month, year). The effect is materialized once:
  affected DueEntry.Amount values are rewritten at application time, and
  the DueChangeRecord is kept as history, not as a re-playable delta.

RULES:
  - Reason is mandatory; magnitude must be positive.
  - Decrease ceilings: global checked against the base rate, individual
    against the member's effective rate (base + net prior adjustments).
  - customAmount-flagged entries are exempt.
  - Entries strictly before the effective month are never touched.
  - Paid flags are never recomputed: an increase can push an already-paid
    entry's amount above its paidAmount, correctly reopening it. Paying
    early at the old rate does not grandfather a later increase.
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RateChangeEngine struct {
	store *LedgerStore
}

func NewRateChangeEngine(store *LedgerStore) *RateChangeEngine {
	return &RateChangeEngine{store: store}
}

// RateChange is the input to ApplyChange.
type RateChange struct {
	Scope          ChangeScope
	MemberIDs      []string // individual scope only
	Direction      ChangeDirection
	Magnitude      Amount
	EffectiveMonth int // 0-based
	EffectiveYear  int
	Reason         string
}

// ApplyChange validates, records, and materializes a rate change.
func (e *RateChangeEngine) ApplyChange(ctx context.Context, actor Actor, req RateChange) (*DueChangeRecord, error) {
	if err := requireAdmin(actor, "modify dues"); err != nil {
		return nil, err
	}

	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(req.Reason) == "" {
		return nil, &ValidationError{Field: "reason", Reason: "reason is mandatory for a due change"}
	}
	if !req.Magnitude.IsPositive() {
		return nil, &ValidationError{Field: "magnitude", Reason: "change amount must be greater than zero"}
	}
	effective := MonthKey{Year: req.EffectiveYear, Month: req.EffectiveMonth}
	if !effective.Valid() {
		return nil, &ValidationError{Field: "effective date", Reason: "month out of range"}
	}

	var targets []*Member
	switch req.Scope {
	case ScopeGlobal:
		targets = s.members
	case ScopeIndividual:
		if len(req.MemberIDs) == 0 {
			return nil, &ValidationError{Field: "memberIds", Reason: "individual change needs at least one member"}
		}
		for _, id := range req.MemberIDs {
			m, _ := s.findMemberLocked(id)
			if m == nil {
				return nil, &NotFoundError{Kind: "member", ID: id}
			}
			targets = append(targets, m)
		}
	default:
		return nil, &ValidationError{Field: "scope", Reason: "scope must be global or individual"}
	}

	if req.Direction == DirectionDecrease {
		if req.Scope == ScopeGlobal {
			// Global ceiling: the base rate itself must not go negative.
			if s.baseRate.Sub(req.Magnitude).IsNegative() {
				return nil, &ValidationError{Field: "magnitude",
					Reason: "decrease exceeds the base monthly due of " + s.baseRate.String()}
			}
		} else {
			// Individual ceiling: each member's currently-active effective rate.
			for _, m := range targets {
				current := s.baseRate.Add(s.activeAdjustmentLocked(m.ID, effective))
				if current.Sub(req.Magnitude).IsNegative() {
					return nil, &ValidationError{Field: "magnitude",
						Reason: "decrease exceeds the current due of " + current.String() + " for " + m.Name}
				}
			}
		}
	}

	// Summary amounts for the history record. Global changes move the
	// shared base rate; individual ones are recorded against the targets'
	// effective rate, and stay zero when the targets' rates disagree.
	oldAmount, newAmount := ZeroAmount(), ZeroAmount()
	rate, uniform := s.baseRate, true
	if req.Scope == ScopeIndividual {
		rate = s.baseRate.Add(s.activeAdjustmentLocked(targets[0].ID, effective))
		for _, m := range targets[1:] {
			if !s.baseRate.Add(s.activeAdjustmentLocked(m.ID, effective)).Equal(rate) {
				uniform = false
				break
			}
		}
	}
	if uniform {
		oldAmount = rate
		if req.Direction == DirectionDecrease {
			newAmount = rate.Sub(req.Magnitude)
		} else {
			newAmount = rate.Add(req.Magnitude)
		}
	}

	memberIDs := req.MemberIDs
	if req.Scope == ScopeGlobal {
		memberIDs = make([]string, len(s.members))
		for i, m := range s.members {
			memberIDs[i] = m.ID
		}
	}

	record := DueChangeRecord{
		ID:             uuid.NewString(),
		Scope:          req.Scope,
		Direction:      req.Direction,
		MemberIDs:      memberIDs,
		OldAmount:      oldAmount,
		NewAmount:      newAmount,
		Magnitude:      req.Magnitude,
		EffectiveMonth: req.EffectiveMonth,
		EffectiveYear:  req.EffectiveYear,
		Reason:         req.Reason,
		Timestamp:      time.Now().UTC(),
		AdminID:        actor.ID,
		AdminName:      actor.Name,
	}
	s.dueChanges = append(s.dueChanges, record)

	for _, m := range targets {
		applyDeltaToMember(m, req.Direction, req.Magnitude, effective)
	}

	s.appendAuditLocked(actor, auditActionFor(req.Scope, req.Direction), map[string]any{
		"changeId":       record.ID,
		"magnitude":      req.Magnitude.String(),
		"effectiveMonth": req.EffectiveMonth,
		"effectiveYear":  req.EffectiveYear,
		"reason":         req.Reason,
		"memberIds":      memberIDs,
	})

	if err := s.saveDueChanges(ctx); err != nil {
		return nil, err
	}
	if err := s.saveMembers(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	return &record, nil
}

// applyDeltaToMember rewrites amounts on entries at or after the effective
// month. customAmount entries are skipped; decreases floor at zero; paid
// state is deliberately left alone.
func applyDeltaToMember(m *Member, direction ChangeDirection, magnitude Amount, effective MonthKey) {
	for i := range m.DuesHistory {
		due := &m.DuesHistory[i]
		if due.Month.Before(effective) || due.CustomAmount {
			continue
		}
		if direction == DirectionDecrease {
			due.Amount = due.Amount.Sub(magnitude).Max(ZeroAmount())
		} else {
			due.Amount = due.Amount.Add(magnitude)
		}
	}
}

// ActiveAdjustment returns the net sum of all change magnitudes targeting
// the member with an effective date at or before asOf. Used for decrease
// ceilings and display only; stored amounts are already materialized.
func (e *RateChangeEngine) ActiveAdjustment(memberID string, asOf MonthKey) Amount {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()
	return e.store.activeAdjustmentLocked(memberID, asOf)
}

func (s *LedgerStore) activeAdjustmentLocked(memberID string, asOf MonthKey) Amount {
	net := ZeroAmount()
	for i := range s.dueChanges {
		c := &s.dueChanges[i]
		if c.EffectiveKey().After(asOf) || !c.Targets(memberID) {
			continue
		}
		if c.Direction == DirectionDecrease {
			net = net.Sub(c.Magnitude)
		} else {
			net = net.Add(c.Magnitude)
		}
	}
	return net
}

func auditActionFor(scope ChangeScope, direction ChangeDirection) AuditAction {
	switch {
	case scope == ScopeGlobal && direction == DirectionDecrease:
		return AuditDueDecreaseGlobal
	case scope == ScopeGlobal:
		return AuditDueIncreaseGlobal
	case direction == DirectionDecrease:
		return AuditDueDecreaseIndividual
	default:
		return AuditDueIncreaseIndividual
	}
}
