package models

// Collection-specific payload shapes. The sync core never looks inside
// Record.Payload; these types exist for the CLI layer and for the legacy
// migration, which need to render and construct payloads.

// Project groups invoices and quotations for one client engagement.
type Project struct {
	Name         string `json:"name"`
	Client       string `json:"client"`
	DepartmentID string `json:"department_id,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Invoice is a billing document. Monetary amounts are kept in cents to avoid
// floating-point drift; validation of totals is a business-layer concern.
type Invoice struct {
	Number      string `json:"number"`
	ProjectID   string `json:"project_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	IssuedOn    string `json:"issued_on,omitempty"`
	DueOn       string `json:"due_on,omitempty"`
	Status      string `json:"status,omitempty"`
	ReceiptKey  string `json:"receipt_key,omitempty"`
}

// Quotation is a pre-sale offer; accepted quotations typically become invoices.
type Quotation struct {
	Number      string `json:"number"`
	ProjectID   string `json:"project_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ValidUntil  string `json:"valid_until,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Payment records money moving in or out. Direction is implied by the
// collection the record lives in (incoming_payments / outgoing_payments).
type Payment struct {
	InvoiceID   string `json:"invoice_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	PaidOn      string `json:"paid_on,omitempty"`
	Method      string `json:"method,omitempty"`
	ReceiptKey  string `json:"receipt_key,omitempty"`
}

// Department is an organizational unit projects can be assigned to.
type Department struct {
	Name string `json:"name"`
}

// Settings is the per-user singleton with company-wide defaults.
type Settings struct {
	CompanyName string `json:"company_name,omitempty"`
	Address     string `json:"address,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// Profile is the singleton describing the owning account itself.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
