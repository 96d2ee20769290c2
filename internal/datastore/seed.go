package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/datastore/entities"
)

// SeedModel describes a catalog entry created at schema time.
type SeedModel struct {
	Name           string
	Provider       string
	APIModelID     string
	RequiresAPIKey bool
	IsLocal        bool
	SizeGB         float64 // 0 when unknown
	Types          []string
}

// DefaultModels returns the catalog seeded by CreateSchema.
func DefaultModels() []SeedModel {
	return []SeedModel{
		{
			Name:     "wd-vit-tagger-v3",
			Provider: "SmilingWolf",
			IsLocal:  true,
			SizeGB:   0.4,
			Types:    []string{entities.ModelTypeTagger},
		},
		{
			Name:     "wd-eva02-large-tagger-v3",
			Provider: "SmilingWolf",
			IsLocal:  true,
			SizeGB:   1.2,
			Types:    []string{entities.ModelTypeTagger},
		},
		{
			Name:     "florence-2-large",
			Provider: "microsoft",
			IsLocal:  true,
			SizeGB:   1.5,
			Types:    []string{entities.ModelTypeCaptioner},
		},
		{
			Name:     "joycaption-alpha-two",
			Provider: "fancyfeast",
			IsLocal:  true,
			SizeGB:   16,
			Types:    []string{entities.ModelTypeCaptioner},
		},
		{
			Name:     "aesthetic-shadow-v2",
			Provider: "shadowlilac",
			IsLocal:  true,
			SizeGB:   1.1,
			Types:    []string{entities.ModelTypeScorer},
		},
		{
			Name:     "realesrgan-x4plus",
			Provider: "xinntao",
			IsLocal:  true,
			SizeGB:   0.07,
			Types:    []string{entities.ModelTypeUpscaler},
		},
		{
			Name:           "gpt-4o",
			Provider:       "openai",
			APIModelID:     "gpt-4o",
			RequiresAPIKey: true,
			Types:          []string{entities.ModelTypeLLM, entities.ModelTypeCaptioner, entities.ModelTypeTagger},
		},
		{
			Name:           "gemini-1.5-pro",
			Provider:       "google",
			APIModelID:     "gemini-1.5-pro",
			RequiresAPIKey: true,
			Types:          []string{entities.ModelTypeLLM, entities.ModelTypeCaptioner},
		},
	}
}

// seedModels creates the capability types and any missing catalog entries.
// Existing models are left untouched. It returns the number of models created.
func seedModels(ctx context.Context, db *gorm.DB, seeds []SeedModel) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		types := make(map[string]entities.ModelType, len(entities.ModelTypeNames))
		for _, name := range entities.ModelTypeNames {
			mt := entities.ModelType{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&mt).Error; err != nil {
				return err
			}
			types[name] = mt
		}

		for _, seed := range seeds {
			model := entities.Model{
				Name:           seed.Name,
				Provider:       seed.Provider,
				APIModelID:     seed.APIModelID,
				RequiresAPIKey: seed.RequiresAPIKey,
				IsLocal:        seed.IsLocal,
			}
			if seed.SizeGB > 0 {
				size := seed.SizeGB
				model.EstimatedSizeGB = &size
			}

			result := tx.Where("name = ?", seed.Name).FirstOrCreate(&model)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}
			created++

			assoc := make([]entities.ModelType, 0, len(seed.Types))
			for _, t := range seed.Types {
				if mt, ok := types[t]; ok {
					assoc = append(assoc, mt)
				}
			}
			if len(assoc) > 0 {
				if err := tx.Model(&model).Association("Types").Append(assoc); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return created, err
}
