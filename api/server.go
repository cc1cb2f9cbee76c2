/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. CORS:       Cross-origin requests for the frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-Id", "X-Actor-Name", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/login", func(r chi.Router) {
			r.Post("/admin", h.AdminLogin)
			r.Post("/member", h.MemberLogin)
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Delete("/{id}", h.DeleteMember)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/advance", h.AddAdvance)
			r.Post("/{id}/advance/sweep", h.SweepAdvance)
			r.Get("/{id}/advance/coverage", h.AdvanceCoverage)
			r.Get("/{id}/receipts", h.ListMemberReceipts)
		})

		r.Get("/payments", h.ListPayments)

		r.Route("/dues", func(r chi.Router) {
			r.Get("/changes", h.ListDueChanges)
			r.Post("/changes", h.ApplyDueChange)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/summary", h.ExpenseSummary)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Get("/", h.ListFeedback)
			r.Post("/", h.CreateFeedback)
			r.Post("/{id}/vote", h.VoteFeedback)
			r.Delete("/{id}", h.DeleteFeedback)
		})

		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", h.UploadReceipt)
			r.Get("/pending", h.ListPendingReceipts)
			r.Post("/{id}/approve", h.ApproveReceipt)
			r.Post("/{id}/reject", h.RejectReceipt)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/audit", h.GetAuditLog)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/credentials", h.UpdateCredentials)
			r.Post("/scheduler/run", h.RunScheduler)
			r.Post("/reset", h.ResetSystem)
			r.Get("/reset-log", h.GetResetLog)
		})
	})

	return r
}
