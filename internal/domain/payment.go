package domain

// Payment is a single ledger entry against a contract. The deposit recorded
// at contract creation is a regular payment with an auto-generated note.
type Payment struct {
	ID          int64   `db:"id" json:"id"`
	ContractID  int64   `db:"contract_id" json:"contractId"`
	Amount      float64 `db:"amount" json:"amount"`
	PaymentDate Date    `db:"payment_date" json:"paymentDate"`
	Note        string  `db:"note" json:"note,omitempty"`
	Paid        bool    `db:"paid" json:"paid"`
}

// Balance captures the derived financial position of a contract. Outstanding
// may be negative on overpayment; it is reported, never clamped.
type Balance struct {
	ContractID  int64   `json:"contractId"`
	TotalPrice  float64 `json:"totalPrice"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
}
