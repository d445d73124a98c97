package domain

import "time"

// =========== Payloads written by the POS front-end ===========
// JSON names match the pos_* columns so the remote store can insert them
// without a mapping layer.

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SaleLine struct {
	ProductID string  `json:"product_id"`
	Barcode   string  `json:"barcode,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	GSTRate   float64 `json:"gst_rate"`
}

type Sale struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id,omitempty"`
	Lines      []SaleLine `json:"lines"`
	Subtotal   float64    `json:"subtotal"`
	GSTAmount  float64    `json:"gst_amount"`
	Total      float64    `json:"total"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Bill struct {
	ID         string    `json:"id"`
	SaleID     string    `json:"sale_id"`
	BillNumber string    `json:"bill_number"`
	CustomerID string    `json:"customer_id,omitempty"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

type Payment struct {
	ID        string        `json:"id"`
	BillID    string        `json:"bill_id"`
	Method    PaymentMethod `json:"method"`
	Amount    float64       `json:"amount"`
	Reference string        `json:"reference,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
