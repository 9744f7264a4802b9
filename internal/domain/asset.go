package domain

import "time"

// AssetStatus is the derived availability state of an asset.
type AssetStatus string

const (
	AssetAvailable AssetStatus = "available"
	AssetRented    AssetStatus = "rented"
)

// Asset is a rentable unit (property, vehicle, equipment). Status is a
// materialized view over the asset's active contracts: rented iff some
// active contract's range contains today. Only the lifecycle manager and
// the reconcile worker may write it.
type Asset struct {
	ID          int64       `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Address     string      `db:"address" json:"address"`
	Description string      `db:"description" json:"description,omitempty"`
	Price       float64     `db:"price" json:"price"`
	Category    string      `db:"category" json:"category"`
	Status      AssetStatus `db:"status" json:"status"`
	OwnerID     int64       `db:"owner_id" json:"ownerId"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// AssetFilter narrows asset listings. Zero values mean "no constraint".
type AssetFilter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Keyword  string
}

// ResolveAssetStatus recomputes the derived status from the asset's active
// contracts. Used after every contract create/cancel and by the periodic
// reconciler so the cached column never drifts.
func ResolveAssetStatus(active []*Contract, today Date) AssetStatus {
	for _, c := range active {
		if c.Status == ContractActive && c.Range().Contains(today) {
			return AssetRented
		}
	}
	return AssetAvailable
}
