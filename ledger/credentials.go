/*
credentials.go - Admin credential storage and login checks

PURPOSE:
  A single admin account guards the privileged operations. Credentials
  live in the store alongside the collections but survive a full reset,
  as does the reset log.
*/
package ledger

import (
	"context"
	"strings"
)

// VerifyAdminLogin checks the admin username and password pair.
func (s *LedgerStore) VerifyAdminLogin(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return username == s.creds.Username && password == s.creds.Password
}

// AdminUsername returns the current admin username. The password is never
// exposed outside login verification and updates.
func (s *LedgerStore) AdminUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Username
}

// CredentialUpdate is the payload for changing the admin credentials.
type CredentialUpdate struct {
	CurrentPassword string
	NewUsername     string
	NewPassword     string
	ConfirmPassword string
}

// UpdateCredentials changes the admin username and password. The caller
// must present the current password; the new password needs at least six
// characters and a matching confirmation.
func (s *LedgerStore) UpdateCredentials(ctx context.Context, actor Actor, in CredentialUpdate) error {
	if err := requireAdmin(actor, "update credentials"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.CurrentPassword != s.creds.Password {
		return &ValidationError{Field: "currentPassword", Reason: "current password is incorrect"}
	}
	username := strings.TrimSpace(in.NewUsername)
	if username == "" {
		return &ValidationError{Field: "username", Reason: "username is required"}
	}
	if len(in.NewPassword) < 6 {
		return &ValidationError{Field: "password", Reason: "password must be at least 6 characters"}
	}
	if in.NewPassword != in.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Reason: "passwords do not match"}
	}

	s.creds = AdminCredentials{Username: username, Password: in.NewPassword}
	s.appendAuditLocked(actor, AuditCredentialsUpdated, map[string]any{
		"username": username,
	})

	if err := s.saveCredentials(ctx); err != nil {
		return err
	}
	return s.saveAudit(ctx)
}
