package ledger

// =============================================================================
// AUTHORIZATION GUARD - Single chokepoint for role checks
// =============================================================================

// requireAdmin is the one place role gating happens. Every mutating engine
// operation calls it on entry (feedback authorship/voting and member receipt
// upload are the documented exceptions). The check lives in the engine, not
// the UI: the UI is untrusted client code.
func requireAdmin(actor Actor, action string) error {
	if actor.Role != RoleAdmin {
		return &AuthorizationError{ActorID: actor.ID, Action: action}
	}
	return nil
}
