package billing

import (
	"fmt"

	"github.com/JonMunkholm/objmap/internal/core"
)

type paymentFactory struct{}

// PaymentFactory builds the Payment manager the first time it is asked for.
var PaymentFactory core.ManagerFactory = &paymentFactory{}

func (*paymentFactory) NewManager(d *core.Directory, typeName string) *core.Manager {
	if typeName != TypePayment {
		return nil
	}
	m, err := d.NewManager(PaymentSpec)
	if err != nil {
		return nil
	}
	return m
}

// Register adds the billing types to d and installs PaymentFactory.
func Register(d *core.Directory) error {
	for _, spec := range []core.TypeSpec{AccountSpec, CustomerSpec, InvoiceSpec} {
		if err := d.Register(spec); err != nil {
			return fmt.Errorf("register billing: %w", err)
		}
	}
	d.AddManagerFactory(PaymentFactory)
	return nil
}
