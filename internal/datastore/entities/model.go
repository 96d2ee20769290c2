package entities

// Model capability names
const (
	ModelTypeCaptioner = "captioner"
	ModelTypeTagger    = "tagger"
	ModelTypeScorer    = "scorer"
	ModelTypeUpscaler  = "upscaler"
	ModelTypeLLM       = "llm"
)

// ModelTypeNames lists every capability in display order
var ModelTypeNames = []string{
	ModelTypeCaptioner,
	ModelTypeTagger,
	ModelTypeScorer,
	ModelTypeUpscaler,
	ModelTypeLLM,
}

// ModelType is a capability tag attached to models.
type ModelType struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(30);not null;uniqueIndex"`
}

// TableName returns the table name for GORM.
func (ModelType) TableName() string {
	return "model_types"
}

// Model is an annotation producer (captioner, tagger, scorer, upscaler).
// LLM-capable models usually carry several types.
type Model struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Provider        string `gorm:"type:varchar(50)"`
	APIModelID      string `gorm:"type:varchar(200)"`
	RequiresAPIKey  bool   `gorm:"not null;default:false"`
	IsLocal         bool   `gorm:"not null;default:false"`
	EstimatedSizeGB *float64
	DiscontinuedAt  *int64 // Unix seconds, nil while available
	CreatedAt       int64  `gorm:"not null"`

	Types []ModelType `gorm:"many2many:model_function_associations;"`
}

// TableName returns the table name for GORM.
func (Model) TableName() string {
	return "models"
}

// HasType reports whether the model carries the named capability
func (m *Model) HasType(name string) bool {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return true
		}
	}
	return false
}
