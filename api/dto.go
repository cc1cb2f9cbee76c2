/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Structural validation (amount parses, month in range) happens in the
  handlers; business validation lives in the ledger engines.
*/
package api

import (
	"github.com/warp/hoa-ledger/ledger"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AdminLoginRequest is the admin login payload.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MemberLoginRequest is the member login payload. The apartment number
// acts as the password.
type MemberLoginRequest struct {
	Name      string `json:"name"`
	Apartment string `json:"apartment"`
}

// CreateMemberRequest registers a new member.
type CreateMemberRequest struct {
	Name      string `json:"name"`
	Apartment string `json:"apartment"`
	Contact   string `json:"contact"`
	Email     string `json:"email,omitempty"`
}

// RecordPaymentRequest records a payment against one month's due.
// Month uses the "YYYY-M" form with a 0-based month.
type RecordPaymentRequest struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
}

// AddAdvanceRequest deposits advance credit for a member.
type AddAdvanceRequest struct {
	Amount string `json:"amount"`
}

// DueChangeRequest applies a global or individual rate change.
type DueChangeRequest struct {
	Scope          string   `json:"type"`       // "global" | "individual"
	Direction      string   `json:"changeType"` // "increase" | "decrease"
	MemberIDs      []string `json:"memberIds,omitempty"`
	Amount         string   `json:"amount"`
	EffectiveMonth int      `json:"effectiveMonth"` // 0-based
	EffectiveYear  int      `json:"effectiveYear"`
	Reason         string   `json:"reason"`
}

// CreateExpenseRequest records a building expense.
type CreateExpenseRequest struct {
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date,omitempty"` // RFC 3339; defaults to now
	Notes    string `json:"notes,omitempty"`
	Image    []byte `json:"image,omitempty"` // base64 in JSON
}

// CreateFeedbackRequest posts a feedback item.
type CreateFeedbackRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UploadReceiptRequest submits a payment proof for review.
type UploadReceiptRequest struct {
	MemberID  string `json:"memberId"`
	Month     int    `json:"month"` // 0-based
	Year      int    `json:"year"`
	Amount    string `json:"amount"`
	FileName  string `json:"fileName"`
	ImageData []byte `json:"imageData"` // base64 in JSON
}

// RejectReceiptRequest declines a pending receipt.
type RejectReceiptRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

// UpdateCredentialsRequest changes the admin username and password.
type UpdateCredentialsRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetRequest wipes the ledger after re-authenticating the admin.
type ResetRequest struct {
	Password string `json:"password"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LoginResponse carries the actor the client should attach to later
// requests via the X-Actor-* headers.
type LoginResponse struct {
	Actor  ledger.Actor   `json:"actor"`
	Member *ledger.Member `json:"member,omitempty"`
}

// PaymentResponse wraps a recorded payment.
type PaymentResponse struct {
	Payment ledger.PaymentRecord `json:"payment"`
}

// AdvanceResponse reports a deposit and the payments its sweep produced.
type AdvanceResponse struct {
	Deposit ledger.AdvanceCreditRecord `json:"deposit"`
	Applied []ledger.PaymentRecord     `json:"applied"`
}

// CoverageResponse estimates months covered by an advance balance.
type CoverageResponse struct {
	MemberID string `json:"memberId"`
	Months   int64  `json:"months"`
}

// SchedulerRunResponse reports a manual scheduler run.
type SchedulerRunResponse struct {
	EntriesCreated int `json:"entriesCreated"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
