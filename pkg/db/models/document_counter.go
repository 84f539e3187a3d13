package models

// DocumentCounter holds the last issued sequence value for a numbering scope.
type DocumentCounter struct {
	Scope string `gorm:"column:scope;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

// All lists every model, in dependency order, for AutoMigrate in tests and dev.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Quote{},
		&QuoteLineItem{},
		&Order{},
		&OrderLineItem{},
		&Receipt{},
		&Configuration{},
		&DocumentCounter{},
	}
}
