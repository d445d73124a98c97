package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown entity kind")

// EntityKind tags the five kinds of offline writes the POS can queue.
type EntityKind string

const (
	KindCustomer           EntityKind = "customer"
	KindSale               EntityKind = "sale"
	KindBill               EntityKind = "bill"
	KindPayment            EntityKind = "payment"
	KindProductStockUpdate EntityKind = "product_stock_update"
)

// ReplayOrder is the fixed order in which a sync pass drains the queues.
// Customers go first so that sales and bills referencing them land after.
var ReplayOrder = []EntityKind{
	KindCustomer,
	KindSale,
	KindBill,
	KindPayment,
	KindProductStockUpdate,
}

type kindInfo struct {
	collection  string
	remoteTable string
	title       string
}

var kinds = map[EntityKind]kindInfo{
	KindCustomer:           {collection: "customers", remoteTable: "pos_customers", title: "Customers"},
	KindSale:               {collection: "sales", remoteTable: "pos_sales", title: "Sales"},
	KindBill:               {collection: "bills", remoteTable: "pos_bills", title: "Bills"},
	KindPayment:            {collection: "payments", remoteTable: "pos_payments", title: "Payments"},
	KindProductStockUpdate: {collection: "product_updates", title: "Stock updates"},
}

func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Collection is the name of the local durable collection holding the kind.
func (k EntityKind) Collection() string { return kinds[k].collection }

// RemoteTable is the hosted table the kind is inserted into. Empty for
// stock updates, which patch pos_products instead.
func (k EntityKind) RemoteTable() string { return kinds[k].remoteTable }

func (k EntityKind) Title() string { return kinds[k].title }

func (k EntityKind) IsStockUpdate() bool { return k == KindProductStockUpdate }
