package models

import "time"

const (
	DeliveryPending    = "pending"
	DeliveryAccepted   = "accepted"
	DeliveryDispatched = "dispatched"
	DeliveryDelivered  = "delivered"
	DeliveryCancelled  = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentRefunded = "refunded"
)

type CartItem struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"not null;uniqueIndex:idx_cart_user_product_franchise"`
	ProductID   int64  `gorm:"not null;uniqueIndex:idx_cart_user_product_franchise"`
	FranchiseID *int64 `gorm:"uniqueIndex:idx_cart_user_product_franchise"`
	Quantity    int32  `gorm:"not null;default:1"`
	CreatedAt   *time.Time `gorm:"autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime"`

	Product   *Product   `gorm:"foreignKey:ProductID"`
	Franchise *Franchise `gorm:"foreignKey:FranchiseID"`
}

type Order struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderID     string `gorm:"size:50;uniqueIndex;not null"`
	UserID      int64  `gorm:"not null;index"`
	ProductID   int64  `gorm:"not null;index"`
	FranchiseID int64  `gorm:"not null;index"`
	AddressID   int64  `gorm:"not null"`
	Quantity    int32  `gorm:"not null;default:1"`

	// Snapshot of the product at purchase time.
	ProductName     string `gorm:"size:255;not null"`
	UnitPrice       string `gorm:"size:50;not null"`
	DiscountPercent int32  `gorm:"not null;default:0"`

	// Always server-computed. Decimal strings, INR.
	SubtotalAmount string `gorm:"size:50;not null"`
	DeliveryCharge string `gorm:"size:50;not null"`
	TotalAmount    string `gorm:"size:50;not null"`

	PaymentStatus  string  `gorm:"size:20;not null;default:pending"`
	PaymentID      *string `gorm:"size:100"`
	DeliveryStatus string  `gorm:"size:20;not null;default:pending"`
	InvoiceReceipt *string `gorm:"size:255"`

	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	User      *User      `gorm:"foreignKey:UserID"`
	Product   *Product   `gorm:"foreignKey:ProductID"`
	Franchise *Franchise `gorm:"foreignKey:FranchiseID"`
	Address   *Address   `gorm:"foreignKey:AddressID"`
}
