package llm

import "gorm.io/datatypes"

// Registration is one row of the LLM registry.
type Registration struct {
	Name        string         `gorm:"primaryKey;column:name" json:"name"`
	DisplayName string         `gorm:"column:display_name" json:"display_name"`
	Provider    string         `gorm:"column:provider" json:"provider"`
	ModelName   string         `gorm:"column:model_name" json:"model_name"`
	Version     string         `gorm:"column:version" json:"version"`
	Params      datatypes.JSON `gorm:"column:params" json:"params"`
	IsActive    bool           `gorm:"column:is_active;not null" json:"is_active"`
}

func (Registration) TableName() string { return "llm" }
