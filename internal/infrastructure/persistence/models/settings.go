package models

import (
	"gorm.io/gorm/schema"
)

// SettingModel is a key/value preference of the restaurant
type SettingModel struct {
	BaseModel
	Key   string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Value string `gorm:"type:text"`
}

// TableName returns the partition-scoped table name
func (SettingModel) TableName(namer schema.Namer) string {
	return namer.TableName("settings")
}

// CustomerModel is a known customer, referenced by delivery tabs through
// their contact reference.
type CustomerModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50);index"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:text"`
	Notes   string `gorm:"type:text"`
}

// TableName returns the partition-scoped table name
func (CustomerModel) TableName(namer schema.Namer) string {
	return namer.TableName("customers")
}
