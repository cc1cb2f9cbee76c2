/*
members.go - MemberDirectory: registration, removal, and member login

PURPOSE:
  Owns the member roster. Registration enforces apartment uniqueness and
  bills the join month immediately. Removal is a hard delete: the member
  and their dues vanish, while payment history keeps its denormalized
  snapshot of who paid.
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MemberDirectory struct {
	store *LedgerStore
}

func NewMemberDirectory(store *LedgerStore) *MemberDirectory {
	return &MemberDirectory{store: store}
}

// NewMemberInput is the registration payload.
type NewMemberInput struct {
	Name      string
	Apartment string
	Contact   string
	Email     string
}

// Register adds a member and bills their join month at the effective
// rate. Apartment numbers are unique across the roster.
func (d *MemberDirectory) Register(ctx context.Context, actor Actor, in NewMemberInput) (*Member, error) {
	if err := requireAdmin(actor, "register member"); err != nil {
		return nil, err
	}

	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(in.Name)
	apartment := strings.TrimSpace(in.Apartment)
	contact := strings.TrimSpace(in.Contact)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}
	if apartment == "" {
		return nil, &ValidationError{Field: "apartment", Reason: "apartment is required"}
	}
	if contact == "" {
		return nil, &ValidationError{Field: "contact", Reason: "contact is required"}
	}
	if s.apartmentTakenLocked(apartment) {
		return nil, ErrDuplicateApartment
	}

	now := time.Now().UTC()
	m := &Member{
		ID:             uuid.NewString(),
		Name:           name,
		Apartment:      apartment,
		Contact:        contact,
		Email:          strings.TrimSpace(in.Email),
		CreatedAt:      now,
		AdvanceBalance: ZeroAmount(),
	}
	s.members = append(s.members, m)
	s.addDueForMonthLocked(m, MonthKeyOf(now))

	s.appendAuditLocked(actor, AuditMemberAdded, map[string]any{
		"memberId":  m.ID,
		"name":      m.Name,
		"apartment": m.Apartment,
	})

	if err := s.saveMembers(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	out := *m
	return &out, nil
}

// Remove hard-deletes a member. Payment, advance, and audit records that
// reference the member are retained untouched.
func (d *MemberDirectory) Remove(ctx context.Context, actor Actor, memberID string) error {
	if err := requireAdmin(actor, "remove member"); err != nil {
		return err
	}

	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m, idx := s.findMemberLocked(memberID)
	if m == nil {
		return &NotFoundError{Kind: "member", ID: memberID}
	}
	s.members = append(s.members[:idx], s.members[idx+1:]...)

	s.appendAuditLocked(actor, AuditMemberDeleted, map[string]any{
		"memberId":  m.ID,
		"name":      m.Name,
		"apartment": m.Apartment,
	})

	if err := s.saveMembers(ctx); err != nil {
		return err
	}
	return s.saveAudit(ctx)
}

// FindByLogin resolves the member login scheme: name matched without case
// sensitivity, apartment number acting as the password (exact match).
func (d *MemberDirectory) FindByLogin(name, apartment string) (Member, bool) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := strings.ToLower(strings.TrimSpace(name))
	apt := strings.TrimSpace(apartment)
	for _, m := range s.members {
		if strings.ToLower(m.Name) == want && m.Apartment == apt {
			return *m, true
		}
	}
	return Member{}, false
}
