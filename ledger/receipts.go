/*
receipts.go - ReceiptDesk: member-uploaded payment proofs and their review

PURPOSE:
  Members upload an image of a payment proof for a given month. Admins
  approve or reject. Approval settles the month's due through the normal
  payment path, tagged source "receipt" and capped at the outstanding
  balance. Reviewed receipts are locked and never change again.
*/
package ledger

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxReceiptSize caps uploaded images at 5 MB.
const MaxReceiptSize = 5 * 1024 * 1024

var allowedReceiptExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"heic": true,
}

type ReceiptDesk struct {
	store *LedgerStore
}

func NewReceiptDesk(store *LedgerStore) *ReceiptDesk {
	return &ReceiptDesk{store: store}
}

// UploadInput is the receipt submission payload.
type UploadInput struct {
	MemberID  string
	Month     int // 0-based
	Year      int
	Amount    Amount
	ImageData []byte
	FileName  string
}

// Upload submits a receipt for review. Members may only upload for
// themselves; admins may upload on a member's behalf. At most one
// non-rejected receipt per member per month.
func (d *ReceiptDesk) Upload(ctx context.Context, actor Actor, in UploadInput) (*Receipt, error) {
	if actor.Role != RoleAdmin && actor.ID != in.MemberID {
		return nil, &AuthorizationError{ActorID: actor.ID, Action: "upload receipt for another member"}
	}

	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _ := s.findMemberLocked(in.MemberID)
	if m == nil {
		return nil, &NotFoundError{Kind: "member", ID: in.MemberID}
	}
	key := MonthKey{Year: in.Year, Month: in.Month}
	if !key.Valid() {
		return nil, &ValidationError{Field: "month", Reason: "month out of range"}
	}
	if !in.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "receipt amount must be greater than zero"}
	}
	if len(in.ImageData) == 0 {
		return nil, &ValidationError{Field: "image", Reason: "receipt image is required"}
	}
	if len(in.ImageData) > MaxReceiptSize {
		return nil, &ValidationError{Field: "image", Reason: "receipt image exceeds 5MB"}
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(in.FileName), "."))
	if !allowedReceiptExtensions[ext] {
		return nil, &ValidationError{Field: "fileName", Reason: "only jpg, jpeg, png, or heic images are accepted"}
	}
	for i := range s.receipts {
		r := &s.receipts[i]
		if r.MemberID == in.MemberID && r.Month == in.Month && r.Year == in.Year && r.Status != ReceiptRejected {
			return nil, &ValidationError{Field: "month", Reason: "a receipt for this month is already submitted"}
		}
	}

	receipt := Receipt{
		ID:         uuid.NewString(),
		MemberID:   in.MemberID,
		Month:      in.Month,
		Year:       in.Year,
		Amount:     in.Amount,
		ImageData:  in.ImageData,
		FileName:   in.FileName,
		FileSize:   int64(len(in.ImageData)),
		UploadedAt: time.Now().UTC(),
		Status:     ReceiptPending,
	}
	s.receipts = append(s.receipts, receipt)

	s.appendAuditLocked(actor, AuditReceiptUploaded, map[string]any{
		"receiptId":  receipt.ID,
		"memberId":   in.MemberID,
		"memberName": m.Name,
		"month":      key.String(),
		"amount":     in.Amount.String(),
	})

	if err := s.saveReceipts(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Approve accepts a pending receipt and settles the month's due through
// the payment path. The applied amount is the smaller of the receipt
// amount and the due's outstanding balance; surplus is ignored.
func (d *ReceiptDesk) Approve(ctx context.Context, actor Actor, receiptID string) (*Receipt, error) {
	if err := requireAdmin(actor, "approve receipt"); err != nil {
		return nil, err
	}

	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.findReceiptLocked(receiptID)
	if r == nil {
		return nil, &NotFoundError{Kind: "receipt", ID: receiptID}
	}
	if r.Status != ReceiptPending {
		return nil, &ValidationError{Field: "status", Reason: "receipt is already reviewed"}
	}

	var applied Amount
	if m, _ := s.findMemberLocked(r.MemberID); m != nil {
		if due := m.DueFor(MonthKey{Year: r.Year, Month: r.Month}); due != nil {
			if slice := r.Amount.Min(due.Outstanding()); slice.IsPositive() {
				s.applyPaymentLocked(m, due, slice, SourceReceipt)
				applied = slice
			}
		}
	}

	now := time.Now().UTC()
	r.Status = ReceiptApproved
	r.ApprovedBy = actor.Name
	r.ApprovedAt = &now
	r.Locked = true

	s.appendAuditLocked(actor, AuditReceiptApproved, map[string]any{
		"receiptId": r.ID,
		"memberId":  r.MemberID,
		"amount":    r.Amount.String(),
		"applied":   applied.String(),
	})

	if err := s.saveReceipts(ctx); err != nil {
		return nil, err
	}
	if err := s.saveMembers(ctx); err != nil {
		return nil, err
	}
	if err := s.savePayments(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	out := *r
	return &out, nil
}

// Reject declines a pending receipt with one of the accepted reasons.
// The "Other" reason requires explanatory notes.
func (d *ReceiptDesk) Reject(ctx context.Context, actor Actor, receiptID, reason, notes string) (*Receipt, error) {
	if err := requireAdmin(actor, "reject receipt"); err != nil {
		return nil, err
	}

	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := false
	for _, r := range RejectionReasons {
		if r == reason {
			valid = true
			break
		}
	}
	if !valid {
		return nil, &ValidationError{Field: "reason", Reason: "rejection reason must be one of the accepted values"}
	}
	if reason == "Other (specify in notes)" && strings.TrimSpace(notes) == "" {
		return nil, &ValidationError{Field: "notes", Reason: "notes are required when rejecting with Other"}
	}

	r := s.findReceiptLocked(receiptID)
	if r == nil {
		return nil, &NotFoundError{Kind: "receipt", ID: receiptID}
	}
	if r.Status != ReceiptPending {
		return nil, &ValidationError{Field: "status", Reason: "receipt is already reviewed"}
	}

	r.Status = ReceiptRejected
	r.RejectionReason = reason
	r.RejectionNotes = strings.TrimSpace(notes)
	r.Locked = true

	s.appendAuditLocked(actor, AuditReceiptRejected, map[string]any{
		"receiptId": r.ID,
		"memberId":  r.MemberID,
		"reason":    reason,
	})

	if err := s.saveReceipts(ctx); err != nil {
		return nil, err
	}
	if err := s.saveAudit(ctx); err != nil {
		return nil, err
	}
	out := *r
	return &out, nil
}

// Pending returns receipts awaiting review, oldest upload first.
func (d *ReceiptDesk) Pending() []Receipt {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Receipt
	for i := range s.receipts {
		if s.receipts[i].Status == ReceiptPending {
			out = append(out, s.receipts[i])
		}
	}
	return out
}

// ForMember returns all receipts the member has submitted.
func (d *ReceiptDesk) ForMember(memberID string) []Receipt {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Receipt
	for i := range s.receipts {
		if s.receipts[i].MemberID == memberID {
			out = append(out, s.receipts[i])
		}
	}
	return out
}

func (s *LedgerStore) findReceiptLocked(id string) *Receipt {
	for i := range s.receipts {
		if s.receipts[i].ID == id {
			return &s.receipts[i]
		}
	}
	return nil
}
