package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/objmap/internal/core"
)

// Delete refuses to remove an account that customers still belong to.
func (a *Account) Delete(ctx context.Context, method core.CommunicationMethod) (bool, error) {
	m := a.Manager()
	if m == nil {
		return false, core.ErrUnbound
	}
	customers, err := m.Directory().Manager(TypeCustomer)
	if err != nil {
		return false, err
	}
	rows, err := customers.LoadObjectsVia(ctx, core.LoadOptions{Method: method}, "AccountID", a.ID)
	if err != nil {
		return false, err
	}
	if len(rows) > 0 {
		return false, core.NewBusinessRuleError(TypeAccount,
			"account %s still has %d customer(s)", a.Code, len(rows))
	}
	return a.Record.Delete(ctx, method)
}

// Save stamps the external id and creation time of new customers.
func (c *Customer) Save(ctx context.Context, method core.CommunicationMethod) (bool, error) {
	if c.ExternalID == uuid.Nil {
		c.ExternalID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return c.Record.Save(ctx, method)
}

// Save rejects negative amounts and asks the manager's warning sink before
// storing a zero amount invoice.
func (inv *Invoice) Save(ctx context.Context, method core.CommunicationMethod) (bool, error) {
	m := inv.Manager()
	if m == nil {
		return false, core.ErrUnbound
	}
	switch {
	case core.IsNull(inv.Amount):
		return false, core.NewBusinessRuleError(TypeInvoice, "invoice %s has no amount", inv.Number)
	case inv.Amount < 0:
		return false, core.NewBusinessRuleError(TypeInvoice,
			"invoice %s: amount %.2f cannot be negative", inv.Number, inv.Amount)
	case inv.Amount == 0:
		if err := m.CanContinueCheck(inv, fmt.Sprintf("Invoice %s has a zero amount", inv.Number), nil); err != nil {
			return false, err
		}
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now().UTC()
	}
	return inv.Record.Save(ctx, method)
}

// HandleException turns a duplicate payment reference into a business
// error the caller can show as is.
func (p *Payment) HandleException(err error) error {
	switch core.MapError(err).Code {
	case "DB001", "DB002":
		return &core.BusinessRuleError{
			Type:    TypePayment,
			Message: fmt.Sprintf("payment %s was already recorded", p.Reference),
			Err:     err,
		}
	}
	return err
}
