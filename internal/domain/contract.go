package domain

import "time"

// ContractStatus is the lifecycle state of a rental contract. Only active
// contracts participate in the no-overlap invariant.
type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractEnded     ContractStatus = "ended"
	ContractCancelled ContractStatus = "cancelled"
)

// Contract is a rental agreement binding a tenant to an asset for a closed
// date range. TotalPrice is derived at creation time and never mutated.
type Contract struct {
	ID         int64          `db:"id" json:"id"`
	AssetID    int64          `db:"asset_id" json:"assetId"`
	TenantID   int64          `db:"tenant_id" json:"tenantId"`
	StartDate  Date           `db:"start_date" json:"startDate"`
	EndDate    Date           `db:"end_date" json:"endDate"`
	TotalPrice float64        `db:"total_price" json:"totalPrice"`
	Deposit    float64        `db:"deposit" json:"deposit"`
	Status     ContractStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// Range returns the contract's closed date interval.
func (c *Contract) Range() DateRange {
	return DateRange{Start: c.StartDate, End: c.EndDate}
}

// CoversToday reports whether the contract is active and its window
// contains the given day.
func (c *Contract) CoversToday(today Date) bool {
	return c.Status == ContractActive && c.Range().Contains(today)
}

// ContractFilter narrows contract listings. Zero values mean "no constraint".
type ContractFilter struct {
	AssetID  int64
	TenantID int64
	Status   ContractStatus
	From     Date
	Until    Date
}
