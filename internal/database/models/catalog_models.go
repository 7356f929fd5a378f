package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringArray stores a JSON-encoded list of strings in a text column.
type StringArray []string

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("failed to scan StringArray: %v", value)
		}
		bytes = []byte(s)
	}

	return json.Unmarshal(bytes, a)
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

type Category struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	Image     string `gorm:"size:512"`
	CreatedAt *time.Time `gorm:"autoCreateTime"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime"`

	Products []Product `gorm:"foreignKey:CategoryID"`
}

type Product struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"size:255;not null;index"`
	CategoryID int64  `gorm:"not null;index"`
	// Decimal string, INR.
	Price             string      `gorm:"size:50;not null"`
	DiscountPercent   int32       `gorm:"not null;default:0"`
	WarehouseStock    int32       `gorm:"not null;default:0"`
	LowStockThreshold int32       `gorm:"not null;default:10"`
	Images            StringArray `gorm:"type:text"`
	Manufacturer      string      `gorm:"size:255"`
	IsPublished       bool        `gorm:"default:false"`
	CreatedAt         *time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         *time.Time  `gorm:"autoUpdateTime"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}
