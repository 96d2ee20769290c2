package entities

// All returns every entity in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&ModelType{},
		&Model{},
		&Image{},
		&ProcessedImage{},
		&Tag{},
		&Caption{},
		&Score{},
		&Rating{},
	}
}
