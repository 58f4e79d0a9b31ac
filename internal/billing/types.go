// Package billing holds the mapped billing types served by the admin
// process: accounts, their customers, invoices issued to customers and
// payments received against invoices.
//
// Invoice reaches its account through references, so
// "Customer.Account.Name" resolves from an invoice in two storage hops
// (fewer when the identity cache is warm).
package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/objmap/internal/core"
)

// Type names.
const (
	TypeAccount  = "Account"
	TypeCustomer = "Customer"
	TypeInvoice  = "Invoice"
	TypePayment  = "Payment"
)

// Account groups customers under one billing provider account.
type Account struct {
	core.Record
	Name   string
	Code   string
	Active bool
}

// NewAccount returns a transient account.
func NewAccount() *Account {
	return &Account{Record: core.NewRecord()}
}

// Customer belongs to an account.
type Customer struct {
	core.Record
	AccountID  int
	Name       string
	Email      *string
	ExternalID uuid.UUID
	CreatedAt  time.Time
}

// NewCustomer returns a transient customer.
func NewCustomer() *Customer {
	return &Customer{Record: core.NewRecord(), AccountID: core.NullInt}
}

// Invoice is issued to a customer.
type Invoice struct {
	core.Record
	CustomerID int
	Number     string
	Amount     float64
	IssuedAt   time.Time
	Paid       bool
}

// NewInvoice returns a transient invoice.
func NewInvoice() *Invoice {
	return &Invoice{Record: core.NewRecord(), CustomerID: core.NullInt}
}

// Payment is received against an invoice.
type Payment struct {
	core.Record
	InvoiceID  int
	Amount     float64
	Reference  string
	ReceivedAt time.Time
}

// NewPayment returns a transient payment.
func NewPayment() *Payment {
	return &Payment{Record: core.NewRecord(), InvoiceID: core.NullInt}
}

// AccountSpec maps Account to the accounts table.
var AccountSpec = core.TypeSpec{
	Name:   TypeAccount,
	Table:  "accounts",
	Parent: &core.RecordSpec,
	New:    func() core.Entity { return NewAccount() },
	Fields: []core.FieldSpec{
		core.Field("Name", "name", func(e core.Entity) *string { return &e.(*Account).Name }),
		core.Field("Code", "code", func(e core.Entity) *string { return &e.(*Account).Code }),
		core.Field("Active", "active", func(e core.Entity) *bool { return &e.(*Account).Active }),
	},
	Messages: map[core.Action]string{
		core.ActionDeleteObject: "Can't delete an account while customers belong to it",
	},
}

// CustomerSpec maps Customer to the customers table.
var CustomerSpec = core.TypeSpec{
	Name:   TypeCustomer,
	Table:  "customers",
	Parent: &core.RecordSpec,
	New:    func() core.Entity { return NewCustomer() },
	Fields: []core.FieldSpec{
		core.Field("AccountID", "account_id", func(e core.Entity) *int { return &e.(*Customer).AccountID }),
		core.Field("Name", "name", func(e core.Entity) *string { return &e.(*Customer).Name }),
		core.Field("Email", "email", func(e core.Entity) **string { return &e.(*Customer).Email }),
		core.Field("ExternalID", "external_id", func(e core.Entity) *uuid.UUID { return &e.(*Customer).ExternalID }),
		core.Field("CreatedAt", "created_at", func(e core.Entity) *time.Time { return &e.(*Customer).CreatedAt }),
	},
	References: []core.ReferenceSpec{
		{Type: TypeAccount, Member: "AccountID"},
	},
}

// InvoiceSpec maps Invoice to the invoices table.
var InvoiceSpec = core.TypeSpec{
	Name:   TypeInvoice,
	Table:  "invoices",
	Parent: &core.RecordSpec,
	New:    func() core.Entity { return NewInvoice() },
	Fields: []core.FieldSpec{
		core.Field("CustomerID", "customer_id", func(e core.Entity) *int { return &e.(*Invoice).CustomerID }),
		core.Field("Number", "number", func(e core.Entity) *string { return &e.(*Invoice).Number }),
		core.Field("Amount", "amount", func(e core.Entity) *float64 { return &e.(*Invoice).Amount }),
		core.Field("IssuedAt", "issued_at", func(e core.Entity) *time.Time { return &e.(*Invoice).IssuedAt }),
		core.Field("Paid", "paid", func(e core.Entity) *bool { return &e.(*Invoice).Paid }),
	},
	References: []core.ReferenceSpec{
		{Type: TypeCustomer, Member: "CustomerID"},
	},
	Messages: map[core.Action]string{
		core.ActionSaveObject: "Invoice values are either empty or invalid",
	},
}

// PaymentSpec maps Payment to the payments table. Payment is not
// registered; PaymentFactory serves it on demand.
var PaymentSpec = core.TypeSpec{
	Name:   TypePayment,
	Table:  "payments",
	Parent: &core.RecordSpec,
	New:    func() core.Entity { return NewPayment() },
	Fields: []core.FieldSpec{
		core.Field("InvoiceID", "invoice_id", func(e core.Entity) *int { return &e.(*Payment).InvoiceID }),
		core.Field("Amount", "amount", func(e core.Entity) *float64 { return &e.(*Payment).Amount }),
		core.Field("Reference", "reference", func(e core.Entity) *string { return &e.(*Payment).Reference }),
		core.Field("ReceivedAt", "received_at", func(e core.Entity) *time.Time { return &e.(*Payment).ReceivedAt }),
	},
	References: []core.ReferenceSpec{
		{Type: TypeInvoice, Member: "InvoiceID"},
	},
}
