/*
handlers.go - HTTP API handlers for the dues ledger

PURPOSE:
  Exposes the ledger engines via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Login:
    POST   /api/login/admin            Admin credential check
    POST   /api/login/member           Member name + apartment check

  Members:
    GET    /api/members                List members with dues
    POST   /api/members                Register member
    GET    /api/members/{id}           Get one member
    DELETE /api/members/{id}           Hard-delete member
    POST   /api/members/{id}/payments  Record payment for a month
    POST   /api/members/{id}/advance   Deposit advance credit
    POST   /api/members/{id}/advance/sweep  Re-run the credit sweep
    GET    /api/members/{id}/advance/coverage  Months covered estimate
    GET    /api/members/{id}/receipts  Member's receipts

  Ledger:
    GET    /api/payments               Full payment history
    GET    /api/dues/changes           Rate change history
    POST   /api/dues/changes           Apply rate change
    GET    /api/dashboard              Aggregate dashboard
    GET    /api/audit                  Audit log

  Expenses / feedback / receipts:
    GET|POST /api/expenses, DELETE /api/expenses/{id}
    GET|POST /api/feedback, POST /api/feedback/{id}/vote,
      DELETE /api/feedback/{id}
    POST   /api/receipts               Upload receipt
    GET    /api/receipts/pending       Pending review queue
    POST   /api/receipts/{id}/approve
    POST   /api/receipts/{id}/reject

  Admin:
    POST   /api/admin/credentials      Update admin credentials
    POST   /api/admin/scheduler/run    Run the dues scheduler now
    POST   /api/admin/reset            Full reset (password re-check)
    GET    /api/admin/reset-log        Reset history

AUTHENTICATION:
  There is no session layer. The client attaches the actor identity it
  obtained from a login endpoint via the X-Actor-Id, X-Actor-Name, and
  X-Actor-Role headers; role enforcement happens inside the engines.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Actor lacks the required role
  - 404: Member / record not found
  - 500: Persistence failures
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/hoa-ledger/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *ledger.LedgerStore
	Members   *ledger.MemberDirectory
	Payments  *ledger.PaymentEngine
	Advances  *ledger.AdvanceCreditEngine
	Rates     *ledger.RateChangeEngine
	Expenses  *ledger.ExpenseBook
	Feedback  *ledger.FeedbackBoard
	Receipts  *ledger.ReceiptDesk
	Reports   *ledger.Reporter
	Scheduler *ledger.DuesScheduler
	Log       *zap.Logger
}

// NewHandler wires every engine around the shared store.
func NewHandler(store *ledger.LedgerStore, log *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		Members:   ledger.NewMemberDirectory(store),
		Payments:  ledger.NewPaymentEngine(store),
		Advances:  ledger.NewAdvanceCreditEngine(store),
		Rates:     ledger.NewRateChangeEngine(store),
		Expenses:  ledger.NewExpenseBook(store),
		Feedback:  ledger.NewFeedbackBoard(store),
		Receipts:  ledger.NewReceiptDesk(store),
		Reports:   ledger.NewReporter(store),
		Scheduler: ledger.NewDuesScheduler(store),
		Log:       log,
	}
}

// actorFrom reads the caller identity from the X-Actor-* headers. The
// engines re-check the role on every privileged operation.
func actorFrom(r *http.Request) ledger.Actor {
	return ledger.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: ledger.Role(r.Header.Get("X-Actor-Role")),
	}
}

// =============================================================================
// LOGIN
// =============================================================================

// AdminLogin verifies the admin credential pair.
// POST /api/login/admin
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if !h.Store.VerifyAdminLogin(req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password", nil)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Actor: ledger.Actor{
		ID:   "admin",
		Name: req.Username,
		Role: ledger.RoleAdmin,
	}})
}

// MemberLogin matches a member by case-insensitive name with the
// apartment number as password.
// POST /api/login/member
func (h *Handler) MemberLogin(w http.ResponseWriter, r *http.Request) {
	var req MemberLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	m, ok := h.Members.FindByLogin(req.Name, req.Apartment)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid name or apartment", nil)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Actor:  ledger.Actor{ID: m.ID, Name: m.Name, Role: ledger.RoleMember},
		Member: &m,
	})
}

// =============================================================================
// MEMBERS
// =============================================================================

// ListMembers returns the roster with dues histories.
// GET /api/members
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Members())
}

// GetMember returns one member.
// GET /api/members/{id}
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.Member(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CreateMember registers a member and bills their join month.
// POST /api/members
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	m, err := h.Members.Register(r.Context(), actorFrom(r), ledger.NewMemberInput{
		Name:      req.Name,
		Apartment: req.Apartment,
		Contact:   req.Contact,
		Email:     req.Email,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Info("member registered",
		zap.String("memberId", m.ID),
		zap.String("apartment", m.Apartment))
	writeJSON(w, http.StatusCreated, m)
}

// DeleteMember hard-deletes a member; payment history survives.
// DELETE /api/members/{id}
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Members.Remove(r.Context(), actorFrom(r), id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Info("member removed", zap.String("memberId", id))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENTS AND ADVANCE CREDIT
// =============================================================================

// RecordPayment records a payment against one month's due.
// POST /api/members/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	key, err := ledger.ParseMonthKey(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err)
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	record, err := h.Payments.Pay(r.Context(), actorFrom(r), chi.URLParam(r, "id"), key, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Info("payment recorded",
		zap.String("memberId", record.MemberID),
		zap.String("month", record.Month.String()),
		zap.String("amount", record.Amount.String()))
	writeJSON(w, http.StatusCreated, PaymentResponse{Payment: *record})
}

// AddAdvance deposits advance credit and sweeps it into unpaid dues.
// POST /api/members/{id}/advance
func (h *Handler) AddAdvance(w http.ResponseWriter, r *http.Request) {
	var req AddAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	deposit, applied, err := h.Advances.AddCredit(r.Context(), actorFrom(r), chi.URLParam(r, "id"), amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AdvanceResponse{Deposit: *deposit, Applied: applied})
}

// SweepAdvance re-runs the credit sweep for one member.
// POST /api/members/{id}/advance/sweep
func (h *Handler) SweepAdvance(w http.ResponseWriter, r *http.Request) {
	applied, err := h.Advances.Sweep(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if applied == nil {
		applied = []ledger.PaymentRecord{}
	}
	writeJSON(w, http.StatusOK, applied)
}

// AdvanceCoverage estimates months covered by the member's balance.
// GET /api/members/{id}/advance/coverage
func (h *Handler) AdvanceCoverage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	months, err := h.Advances.MonthsCovered(id, ledger.MonthKeyOf(time.Now()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CoverageResponse{MemberID: id, Months: months})
}

// ListPayments returns the full payment history.
// GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Payments())
}

// =============================================================================
// RATE CHANGES
// =============================================================================

// ApplyDueChange applies a global or individual rate change.
// POST /api/dues/changes
func (h *Handler) ApplyDueChange(w http.ResponseWriter, r *http.Request) {
	var req DueChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	magnitude, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	record, err := h.Rates.ApplyChange(r.Context(), actorFrom(r), ledger.RateChange{
		Scope:          ledger.ChangeScope(req.Scope),
		MemberIDs:      req.MemberIDs,
		Direction:      ledger.ChangeDirection(req.Direction),
		Magnitude:      magnitude,
		EffectiveMonth: req.EffectiveMonth,
		EffectiveYear:  req.EffectiveYear,
		Reason:         req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Info("due change applied",
		zap.String("changeId", record.ID),
		zap.String("scope", string(record.Scope)),
		zap.String("direction", string(record.Direction)))
	writeJSON(w, http.StatusCreated, record)
}

// ListDueChanges returns the rate change history.
// GET /api/dues/changes
func (h *Handler) ListDueChanges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.DueChanges())
}

// =============================================================================
// EXPENSES
// =============================================================================

// ListExpenses returns expenses, newest first. Supports optional
// ?category= and ?month= filters; month accepts "current" or "YYYY-M".
// GET /api/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ExpenseFilter{Category: r.URL.Query().Get("category")}
	switch monthParam := r.URL.Query().Get("month"); monthParam {
	case "":
	case "current":
		key := ledger.MonthKeyOf(time.Now())
		filter.Month = &key
	default:
		key, err := ledger.ParseMonthKey(monthParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month filter", err)
			return
		}
		filter.Month = &key
	}
	writeJSON(w, http.StatusOK, h.Expenses.Filtered(filter))
}

// CreateExpense records a building expense.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
	}
	exp, err := h.Expenses.Add(r.Context(), actorFrom(r), ledger.NewExpenseInput{
		Name:     req.Name,
		Amount:   amount,
		Category: req.Category,
		Date:     date,
		Notes:    req.Notes,
		Image:    req.Image,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// DeleteExpense removes an expense record.
// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.Remove(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpenseSummary returns per-category expense totals.
// GET /api/expenses/summary
func (h *Handler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Expenses.CategoryTotals())
}

// =============================================================================
// FEEDBACK
// =============================================================================

// ListFeedback returns feedback items, most voted first by default or
// newest first with ?sort=date.
// GET /api/feedback
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sort") == "date" {
		writeJSON(w, http.StatusOK, h.Feedback.ListByDate())
		return
	}
	writeJSON(w, http.StatusOK, h.Feedback.List())
}

// CreateFeedback posts a feedback item.
// POST /api/feedback
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	item, err := h.Feedback.Submit(r.Context(), actorFrom(r), ledger.NewFeedbackInput{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// VoteFeedback toggles the actor's upvote on an item.
// POST /api/feedback/{id}/vote
func (h *Handler) VoteFeedback(w http.ResponseWriter, r *http.Request) {
	item, err := h.Feedback.ToggleVote(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteFeedback removes a feedback item.
// DELETE /api/feedback/{id}
func (h *Handler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if err := h.Feedback.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECEIPTS
// =============================================================================

// UploadReceipt submits a payment proof for review.
// POST /api/receipts
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	var req UploadReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	receipt, err := h.Receipts.Upload(r.Context(), actorFrom(r), ledger.UploadInput{
		MemberID:  req.MemberID,
		Month:     req.Month,
		Year:      req.Year,
		Amount:    amount,
		ImageData: req.ImageData,
		FileName:  req.FileName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// ListPendingReceipts returns the review queue.
// GET /api/receipts/pending
func (h *Handler) ListPendingReceipts(w http.ResponseWriter, r *http.Request) {
	pending := h.Receipts.Pending()
	if pending == nil {
		pending = []ledger.Receipt{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// ListMemberReceipts returns one member's receipts.
// GET /api/members/{id}/receipts
func (h *Handler) ListMemberReceipts(w http.ResponseWriter, r *http.Request) {
	receipts := h.Receipts.ForMember(chi.URLParam(r, "id"))
	if receipts == nil {
		receipts = []ledger.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

// ApproveReceipt accepts a pending receipt and settles the due.
// POST /api/receipts/{id}/approve
func (h *Handler) ApproveReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Receipts.Approve(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// RejectReceipt declines a pending receipt.
// POST /api/receipts/{id}/reject
func (h *Handler) RejectReceipt(w http.ResponseWriter, r *http.Request) {
	var req RejectReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	receipt, err := h.Receipts.Reject(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Reason, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// =============================================================================
// DASHBOARD AND AUDIT
// =============================================================================

// GetDashboard returns the aggregate dashboard for the current month.
// GET /api/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reports.BuildDashboard(time.Now()))
}

// GetAuditLog returns the full audit trail.
// GET /api/audit
func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.AuditEntries())
}

// =============================================================================
// ADMIN
// =============================================================================

// UpdateCredentials changes the admin username and password.
// POST /api/admin/credentials
func (h *Handler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	var req UpdateCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	err := h.Store.UpdateCredentials(r.Context(), actorFrom(r), ledger.CredentialUpdate{
		CurrentPassword: req.CurrentPassword,
		NewUsername:     req.NewUsername,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunScheduler backfills dues up to the current month on demand.
// POST /api/admin/scheduler/run
func (h *Handler) RunScheduler(w http.ResponseWriter, r *http.Request) {
	if err := requireAdminHeader(r); err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := h.Scheduler.EnsureDuesUpToDate(r.Context(), ledger.MonthKeyOf(time.Now()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Info("scheduler run", zap.Int("entriesCreated", created))
	writeJSON(w, http.StatusOK, SchedulerRunResponse{EntriesCreated: created})
}

// ResetSystem wipes the ledger after re-authenticating the admin.
// POST /api/admin/reset
func (h *Handler) ResetSystem(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	event, err := h.Store.Reset(r.Context(), actorFrom(r), req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.Log.Warn("system reset", zap.String("resetId", event.ID))
	writeJSON(w, http.StatusOK, event)
}

// GetResetLog returns the reset history. Survives resets.
// GET /api/admin/reset-log
func (h *Handler) GetResetLog(w http.ResponseWriter, r *http.Request) {
	if err := requireAdminHeader(r); err != nil {
		writeDomainError(w, err)
		return
	}
	log, err := h.Store.ResetLog(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if log == nil {
		log = []ledger.ResetEvent{}
	}
	writeJSON(w, http.StatusOK, log)
}

// requireAdminHeader guards read endpoints that have no engine-level
// role check of their own.
func requireAdminHeader(r *http.Request) error {
	actor := actorFrom(r)
	if actor.Role != ledger.RoleAdmin {
		return ledger.ErrUnauthorized
	}
	return nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
