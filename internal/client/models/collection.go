// Package models defines the synchronized record envelope and the business
// collections it is instantiated for.
package models

// Collection names one logical table of records.
type Collection string

const (
	CollectionProjects         Collection = "projects"
	CollectionInvoices         Collection = "invoices"
	CollectionQuotations       Collection = "quotations"
	CollectionIncomingPayments Collection = "incoming_payments"
	CollectionOutgoingPayments Collection = "outgoing_payments"
	CollectionDepartments      Collection = "departments"
	CollectionSettings         Collection = "settings"
	CollectionProfile          Collection = "profile"
)

// SyncOrder is the fixed order in which bulk collections are synchronized.
// The profile is not part of it: the orchestrator always handles it first,
// before any bulk collection.
var SyncOrder = []Collection{
	CollectionProjects,
	CollectionInvoices,
	CollectionQuotations,
	CollectionIncomingPayments,
	CollectionOutgoingPayments,
	CollectionDepartments,
	CollectionSettings,
}

// Singleton reports whether the collection holds exactly one document per
// user. Singletons are addressed remotely by a fixed key instead of
// enumerated ids.
func (c Collection) Singleton() bool {
	return c == CollectionSettings || c == CollectionProfile
}

// SingletonID is the fixed record id used for singleton collections on both
// sides of the sync.
const SingletonID = "default"
