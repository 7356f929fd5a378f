package models

import "time"

const (
	RoleUser         = "user"
	RoleAdmin        = "admin"
	RoleOrderManager = "orderManager"
)

const (
	StatusActive    = "Active"
	StatusInactive  = "Inactive"
	StatusSuspended = "Suspended"
)

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"size:20;not null;default:user"`
	Status    string `gorm:"size:20;not null;default:Active"`
	Phone     string `gorm:"size:20"`
	// Set only for order managers; at most one manager per franchise.
	FranchiseID *int64     `gorm:"uniqueIndex"`
	Franchise   *Franchise `gorm:"foreignKey:FranchiseID"`
	LastLogin   *time.Time
	CreatedAt   *time.Time `gorm:"autoCreateTime"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime"`

	Addresses []Address `gorm:"foreignKey:UserID"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleOrderManager:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

type Address struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index"`
	Street    string `gorm:"size:255;not null"`
	City      string `gorm:"size:100;not null"`
	State     string `gorm:"size:100;not null"`
	Pincode   string `gorm:"size:10;not null"`
	Country   string `gorm:"size:100;not null;default:India"`
	Phone     string `gorm:"size:20"`
	Status    string `gorm:"size:20;not null;default:Active"`
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`
}
