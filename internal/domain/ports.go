package domain

import "context"

// AssetRepository defines data access for assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, id int64) (*Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]*Asset, error)
	UpdateStatus(ctx context.Context, id int64, status AssetStatus) error
	Delete(ctx context.Context, id int64) error
}

// ContractRepository defines data access for contracts.
type ContractRepository interface {
	Create(ctx context.Context, contract *Contract) error
	GetByID(ctx context.Context, id int64) (*Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]*Contract, error)
	// ActiveByAsset returns every active contract for an asset, used to
	// recompute the derived asset status.
	ActiveByAsset(ctx context.Context, assetID int64) ([]*Contract, error)
	// FindOverlap returns the first active contract on the asset whose
	// closed range overlaps rng, or nil when the window is free.
	// excludeID, when non-zero, ignores that contract.
	FindOverlap(ctx context.Context, assetID int64, rng DateRange, excludeID int64) (*Contract, error)
	UpdateStatus(ctx context.Context, id int64, status ContractStatus) error
	DeleteByAsset(ctx context.Context, assetID int64) error
}

// PaymentRepository defines data access for the payment ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id int64) (*Payment, error)
	ListByContract(ctx context.Context, contractID int64) ([]*Payment, error)
	SumByContract(ctx context.Context, contractID int64) (float64, error)
	Update(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id int64) error
	DeleteByContract(ctx context.Context, contractID int64) error
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
}

// DamageRepository defines data access for damage reports.
type DamageRepository interface {
	Create(ctx context.Context, report *DamageReport) error
	GetByID(ctx context.Context, id int64) (*DamageReport, error)
	ListByContract(ctx context.Context, contractID int64) ([]*DamageReport, error)
	Update(ctx context.Context, report *DamageReport) error
	Delete(ctx context.Context, id int64) error
	DeleteByContract(ctx context.Context, contractID int64) error
}

// Store bundles the repositories behind a single transactional boundary.
// WithinTx runs fn against a store view whose writes commit together or not
// at all; the booking write path depends on this.
type Store interface {
	Assets() AssetRepository
	Contracts() ContractRepository
	Payments() PaymentRepository
	Accounts() AccountRepository
	Damages() DamageRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// AssetLocker serializes check-then-write booking sequences per asset.
// Acquire blocks for a bounded time and returns ErrBusy on contention;
// the returned release function is always safe to call once.
type AssetLocker interface {
	Acquire(ctx context.Context, assetID int64) (release func(), err error)
}
