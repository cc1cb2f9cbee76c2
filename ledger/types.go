/*
Package ledger provides the core dues and accounting engine for a
single-building homeowners' association.

PURPOSE:
  This package contains the authoritative data model and the engines that
  mutate it: monthly dues scheduling, payments, advance credits, rate
  changes, and the audit trail. Everything else in the repo (HTTP handlers,
  persistence adapters, config) is plumbing around this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary value backed by decimal.Decimal (no float drift)
  - Member: A unit owner with an ordered dues history and a credit balance
  - DueEntry: One month's billing obligation, keyed by MonthKey
  - PaymentRecord / AdvanceCreditRecord / DueChangeRecord: Immutable facts
  - AuditEntry: Who did what, when, with a structured detail payload
  - Actor: The authenticated caller descriptor supplied by the login flow

DESIGN PRINCIPLES:
  1. Immutability: Records are append-only; only Member state mutates
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Attribution: Every mutation carries an acting admin identity
  4. Re-derivability: Totals are computed from history, never cached

SEE ALSO:
  - month.go: The (year, month) composite key type
  - store.go: LedgerStore, the owner of all collections
  - errors.go: Error taxonomy shared by every engine
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary value (single fixed currency for this system)
// =============================================================================

type Amount struct {
	value decimal.Decimal
}

func NewAmount(value float64) Amount   { return Amount{value: decimal.NewFromFloat(value)} }
func NewAmountFromInt(v int64) Amount  { return Amount{value: decimal.NewFromInt(v)} }
func ZeroAmount() Amount               { return Amount{value: decimal.Zero} }

func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: d}, nil
}

func (a Amount) Add(b Amount) Amount          { return Amount{value: a.value.Add(b.value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{value: a.value.Sub(b.value)} }
func (a Amount) Neg() Amount                  { return Amount{value: a.value.Neg()} }
func (a Amount) IsZero() bool                 { return a.value.IsZero() }
func (a Amount) IsNegative() bool             { return a.value.IsNegative() }
func (a Amount) IsPositive() bool             { return a.value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool       { return a.value.LessThan(b.value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.value.GreaterThan(b.value) }
func (a Amount) GreaterOrEqual(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }
func (a Amount) String() string               { return a.value.String() }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// Div returns how many whole times b fits into a (floor division).
// Used for "months covered by surplus credit" estimates.
func (a Amount) Div(b Amount) int64 {
	if b.IsZero() || b.IsNegative() {
		return 0
	}
	return a.value.Div(b.value).Floor().IntPart()
}

// Amount serializes as a bare JSON number, matching the snapshot format.
// decimal's own MarshalJSON quotes the value, so render it directly.
func (a Amount) MarshalJSON() ([]byte, error) { return []byte(a.value.String()), nil }
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.value.UnmarshalJSON(data)
}

// =============================================================================
// ACTOR - Authenticated caller descriptor (supplied by the login boundary)
// =============================================================================

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Actor is produced by the external login flow. The engines trust its
// identity fields but always re-check Role: the UI is untrusted.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// =============================================================================
// MEMBER - Unit owner with dues history and advance balance
// =============================================================================

type Member struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Apartment      string     `json:"apartment"`
	Contact        string     `json:"contact"`
	Email          string     `json:"email,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	DuesHistory    []DueEntry `json:"duesHistory"`
	AdvanceBalance Amount     `json:"advanceBalance"`
}

// DueFor returns the due entry for the given month, or nil.
func (m *Member) DueFor(key MonthKey) *DueEntry {
	for i := range m.DuesHistory {
		if m.DuesHistory[i].Month == key {
			return &m.DuesHistory[i]
		}
	}
	return nil
}

// UnpaidDues returns the unpaid entries sorted oldest-first by (year, month).
func (m *Member) UnpaidDues() []*DueEntry {
	var unpaid []*DueEntry
	for i := range m.DuesHistory {
		if !m.DuesHistory[i].Paid {
			unpaid = append(unpaid, &m.DuesHistory[i])
		}
	}
	sortDuesOldestFirst(unpaid)
	return unpaid
}

// DueEntry is one month's billing obligation for one member.
// Key = Month; unique per member, never deleted.
type DueEntry struct {
	Month        MonthKey `json:"month"`
	Amount       Amount   `json:"amount"`
	PaidAmount   Amount   `json:"paidAmount"`
	Paid         bool     `json:"paid"`
	CustomAmount bool     `json:"customAmount,omitempty"` // exempt from rate changes
}

func (d *DueEntry) Outstanding() Amount {
	return d.Amount.Sub(d.PaidAmount)
}

// =============================================================================
// IMMUTABLE RECORDS - Payment, advance credit, rate change
// =============================================================================

type PaymentSource string

const (
	SourceDirect        PaymentSource = ""               // admin-recorded payment
	SourceAdvanceCredit PaymentSource = "advance_credit" // swept from prepaid balance
	SourceReceipt       PaymentSource = "receipt"        // approved member receipt
)

// PaymentRecord is an immutable fact of money received. Name and apartment
// are denormalized snapshots so the record stays readable after the member
// is deleted.
type PaymentRecord struct {
	ID         string        `json:"id"`
	MemberID   string        `json:"memberId"`
	MemberName string        `json:"memberName"`
	Apartment  string        `json:"apartment"`
	Amount     Amount        `json:"amount"`
	Month      MonthKey      `json:"month"`
	Date       time.Time     `json:"date"`
	Source     PaymentSource `json:"source,omitempty"`
}

// AdvanceCreditRecord is an immutable fact of a credit deposit. The running
// balance lives on Member; these records are the deposit audit trail.
type AdvanceCreditRecord struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	MemberName string    `json:"memberName"`
	Apartment  string    `json:"apartment"`
	Amount     Amount    `json:"amount"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

type ChangeScope string

const (
	ScopeGlobal     ChangeScope = "global"
	ScopeIndividual ChangeScope = "individual"
)

type ChangeDirection string

const (
	DirectionIncrease ChangeDirection = "increase"
	DirectionDecrease ChangeDirection = "decrease"
)

// DueChangeRecord describes one applied rate change. The effect on dues is
// materialized once at application time; the record is history, not a
// re-playable delta.
type DueChangeRecord struct {
	ID        string          `json:"id"`
	Scope     ChangeScope     `json:"type"`
	Direction ChangeDirection `json:"changeType"`
	MemberIDs []string        `json:"memberIds"`
	// OldAmount and NewAmount summarize the effective rate around the
	// change; both are zero for an individual change whose targets had
	// differing rates.
	OldAmount      Amount    `json:"oldAmount"`
	NewAmount      Amount    `json:"newAmount"`
	Magnitude      Amount    `json:"magnitude"`
	EffectiveMonth int       `json:"effectiveMonth"`
	EffectiveYear  int       `json:"effectiveYear"`
	Reason         string    `json:"reason"`
	Timestamp      time.Time `json:"timestamp"`
	AdminID        string    `json:"adminId"`
	AdminName      string    `json:"adminName"`
}

// Targets reports whether the change applies to the given member.
func (c *DueChangeRecord) Targets(memberID string) bool {
	if c.Scope == ScopeGlobal {
		return true
	}
	for _, id := range c.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// EffectiveKey returns the first month the change applies to.
func (c *DueChangeRecord) EffectiveKey() MonthKey {
	return MonthKey{Year: c.EffectiveYear, Month: c.EffectiveMonth}
}

// =============================================================================
// AUDIT ENTRY
// =============================================================================

type AuditAction string

const (
	AuditMemberAdded           AuditAction = "MEMBER_ADDED"
	AuditMemberDeleted         AuditAction = "MEMBER_DELETED"
	AuditPaymentRecorded       AuditAction = "PAYMENT_RECORDED"
	AuditAdvanceCreditAdded    AuditAction = "ADVANCE_CREDIT_ADDED"
	AuditAdvanceApplied        AuditAction = "ADVANCE_APPLIED"
	AuditDueIncreaseGlobal     AuditAction = "DUE_INCREASE_GLOBAL"
	AuditDueIncreaseIndividual AuditAction = "DUE_INCREASE_INDIVIDUAL"
	AuditDueDecreaseGlobal     AuditAction = "DUE_DECREASE_GLOBAL"
	AuditDueDecreaseIndividual AuditAction = "DUE_DECREASE_INDIVIDUAL"
	AuditExpenseAdded          AuditAction = "EXPENSE_ADDED"
	AuditExpenseDeleted        AuditAction = "EXPENSE_DELETED"
	AuditReceiptUploaded       AuditAction = "RECEIPT_UPLOADED"
	AuditReceiptApproved       AuditAction = "RECEIPT_APPROVED"
	AuditReceiptRejected       AuditAction = "RECEIPT_REJECTED"
	AuditCredentialsUpdated    AuditAction = "CREDENTIALS_UPDATED"
	AuditSystemReset           AuditAction = "SYSTEM_RESET"
)

// AuditEntry records who did what when. Append-only; cleared only by a full
// reset, which itself logs to a separate log that survives the reset.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"adminId"`
	ActorName string         `json:"adminName"`
	Action    AuditAction    `json:"action"`
	Details   map[string]any `json:"details"`
}

// ResetEvent is written to the tamper-resistant reset log before a full
// reset clears the store. The reset log is never cleared.
type ResetEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"userId"`
	ActorName string         `json:"user"`
	Details   map[string]int `json:"details"`
}

// =============================================================================
// PERIPHERAL ENTITIES - Expenses, feedback, receipts, credentials
// =============================================================================

type Expense struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    Amount    `json:"amount"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Image     []byte    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeedbackItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Role        Role      `json:"role"`
	Date        time.Time `json:"date"`
	Votes       int       `json:"votes"`
	VotedBy     []string  `json:"votedBy"`
}

type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
)

// RejectionReasons are the only accepted reasons for rejecting a receipt.
var RejectionReasons = []string{
	"Unclear image",
	"Amount mismatch",
	"Wrong payment details",
	"Duplicate receipt",
	"Invalid payment proof",
	"Other (specify in notes)",
}

type Receipt struct {
	ID              string        `json:"id"`
	MemberID        string        `json:"memberId"`
	Month           int           `json:"month"`
	Year            int           `json:"year"`
	Amount          Amount        `json:"amount"`
	ImageData       []byte        `json:"imageData"`
	FileName        string        `json:"fileName"`
	FileSize        int64         `json:"fileSize"`
	UploadedAt      time.Time     `json:"uploadTimestamp"`
	Status          ReceiptStatus `json:"status"`
	ApprovedBy      string        `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time    `json:"approvalTimestamp,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	RejectionNotes  string        `json:"rejectionNotes,omitempty"`
	Locked          bool          `json:"locked"`
}

// AdminCredentials is the plaintext credential pair for the admin login.
// This mirrors the snapshot format; it is not a real security boundary.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DefaultCredentials returned when the store has none persisted.
func DefaultCredentials() AdminCredentials {
	return AdminCredentials{Username: "admin", Password: "admin123"}
}
