package domain

// DamageStatus tracks whether a reported damage has been repaired.
type DamageStatus string

const (
	DamagePending  DamageStatus = "pending"
	DamageRepaired DamageStatus = "repaired"
)

// DamageReport records damage to an asset observed during a contract.
type DamageReport struct {
	ID           int64        `db:"id" json:"id"`
	ContractID   int64        `db:"contract_id" json:"contractId"`
	AssetID      int64        `db:"asset_id" json:"assetId"`
	Description  string       `db:"description" json:"description"`
	Severity     string       `db:"severity" json:"severity"`
	RepairCost   float64      `db:"repair_cost" json:"repairCost"`
	ReportedDate Date         `db:"reported_date" json:"reportedDate"`
	Status       DamageStatus `db:"status" json:"status"`
	RepairedDate Date         `db:"repaired_date" json:"repairedDate,omitempty"`
}
