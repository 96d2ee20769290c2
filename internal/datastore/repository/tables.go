package repository

// Table name constants.
const (
	tableImages          = "images"
	tableProcessedImages = "processed_images"
	tableTags            = "tags"
	tableCaptions        = "captions"
	tableScores          = "scores"
	tableRatings         = "ratings"
	tableModels          = "models"
)

// childTables lists every table owned by an image, deleted before it.
var childTables = []string{
	tableProcessedImages,
	tableTags,
	tableCaptions,
	tableScores,
	tableRatings,
}
