/*
expense.go - ExpenseBook: building expense records and category totals
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ExpenseBook struct {
	store *LedgerStore
}

func NewExpenseBook(store *LedgerStore) *ExpenseBook {
	return &ExpenseBook{store: store}
}

// NewExpenseInput is the payload for recording an expense.
type NewExpenseInput struct {
	Name     string
	Amount   Amount
	Category string
	Date     time.Time
	Notes    string
	Image    []byte
}

// Add records a building expense.
func (b *ExpenseBook) Add(ctx context.Context, actor Actor, in NewExpenseInput) (*Expense, error) {
	if err := requireAdmin(actor, "record expense"); err != nil {
		return nil, err
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "expense name is required"}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "expense amount must be greater than zero"}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "Other"
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	exp := Expense{
		ID:        uuid.NewString(),
		Name:      name,
		Amount:    in.Amount,
		Category:  category,
		Date:      date,
		Notes:     strings.TrimSpace(in.Notes),
		Image:     in.Image,
		CreatedAt: time.Now().UTC(),
	}
	s.expenses = append(s.expenses, exp)

	s.appendAuditLocked(actor, AuditExpenseAdded, map[string]any{
		"expenseId": exp.ID,
		"name":      exp.Name,
		"amount":    exp.Amount.String(),
		"category":  exp.Category,
	})

	if err := s.saveExpenses(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	return &exp, nil
}

// Remove deletes an expense record.
func (b *ExpenseBook) Remove(ctx context.Context, actor Actor, expenseID string) error {
	if err := requireAdmin(actor, "delete expense"); err != nil {
		return err
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == expenseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "expense", ID: expenseID}
	}
	removed := s.expenses[idx]
	s.expenses = append(s.expenses[:idx], s.expenses[idx+1:]...)

	s.appendAuditLocked(actor, AuditExpenseDeleted, map[string]any{
		"expenseId": removed.ID,
		"name":      removed.Name,
		"amount":    removed.Amount.String(),
	})

	if err := s.saveExpenses(ctx); err != nil {
		return err
	}
	return s.saveAudit(ctx)
}

// List returns all expenses, newest first.
func (b *ExpenseBook) List() []Expense {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Expense, len(s.expenses))
	copy(out, s.expenses)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ExpenseFilter narrows a listing. Zero values match everything.
type ExpenseFilter struct {
	Category string
	Month    *MonthKey
}

// Filtered returns expenses matching the filter, newest first.
func (b *ExpenseBook) Filtered(f ExpenseFilter) []Expense {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Expense
	for i := len(s.expenses) - 1; i >= 0; i-- {
		e := s.expenses[i]
		if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
			continue
		}
		if f.Month != nil && MonthKeyOf(e.Date) != *f.Month {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CategoryTotals sums expenses per category.
func (b *ExpenseBook) CategoryTotals() map[string]Amount {
	s := b.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]Amount)
	for i := range s.expenses {
		e := &s.expenses[i]
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}
