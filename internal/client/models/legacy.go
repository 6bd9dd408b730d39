package models

import "encoding/json"

// LegacySnapshot is the flat whole-state blob written by the pre-database
// version of the application. Entity arrays stay raw so a single malformed
// entity can be skipped without failing the rest of the migration.
type LegacySnapshot struct {
	Users             []LegacyUser      `json:"users"`
	Projects          []json.RawMessage `json:"projects"`
	Invoices          []json.RawMessage `json:"invoices"`
	Quotations        []json.RawMessage `json:"quotations"`
	Settings          json.RawMessage   `json:"settings"`
	SignatureSettings json.RawMessage   `json:"signatureSettings"`
}

// LegacyUser is one identity from the legacy user list. Admin users take
// precedence when resolving the primary account during migration.
type LegacyUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
}

// IsAdmin reports whether the user counts as a privileged identity.
func (u LegacyUser) IsAdmin() bool {
	return u.Admin || u.Role == "admin"
}
