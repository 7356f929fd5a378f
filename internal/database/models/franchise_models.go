package models

import "time"

type Franchise struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	Street    string `gorm:"size:255;not null"`
	City      string `gorm:"size:100;not null"`
	State     string `gorm:"size:100;not null"`
	Pincode   string `gorm:"size:10;not null"`
	Country   string `gorm:"size:100;not null;default:India"`
	Contact   string `gorm:"size:20"`
	Email     string `gorm:"uniqueIndex;not null"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Stocks []FranchiseStock `gorm:"foreignKey:FranchiseID"`
}

type FranchiseStock struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	FranchiseID int64 `gorm:"not null;uniqueIndex:idx_franchise_product"`
	ProductID   int64 `gorm:"not null;uniqueIndex:idx_franchise_product"`
	Quantity    int32 `gorm:"not null;default:0"`
	LastUpdated time.Time
	CreatedAt   *time.Time `gorm:"autoCreateTime"`

	Franchise *Franchise `gorm:"foreignKey:FranchiseID"`
	Product   *Product   `gorm:"foreignKey:ProductID"`
}

const (
	MovementAddition    = "addition"
	MovementSubtraction = "subtraction"
	MovementOrder       = "order"
	MovementRestock     = "restock"
)

// StockMovement is an append-only audit row written in the same
// transaction as the stock change it records.
type StockMovement struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	FranchiseID *int64  `gorm:"index"`
	ProductID   int64   `gorm:"not null;index"`
	Movement    string  `gorm:"size:20;not null"`
	Quantity    int32   `gorm:"not null"`
	ReferenceID *string `gorm:"size:100"`
	Notes       *string `gorm:"size:255"`
	CreatedBy   int64
	CreatedAt   time.Time
}
