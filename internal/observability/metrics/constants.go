// Package metrics provides constants used across metric definitions.
package metrics

// Operation label values for datastore metrics.
const (
	// OpImageCreate represents original image registration.
	OpImageCreate = "image_create"
	// OpImageUpdate represents partial metadata updates.
	OpImageUpdate = "image_update"
	// OpImageDelete represents image deletion with all children.
	OpImageDelete = "image_delete"
	// OpImageGet represents single image lookups.
	OpImageGet = "image_get"
	// OpProcessedCreate represents processed variant registration.
	OpProcessedCreate = "processed_create"
	// OpAnnotationSave represents annotation batches.
	OpAnnotationSave = "annotation_save"
	// OpAnnotationGet represents annotation reads.
	OpAnnotationGet = "annotation_get"
	// OpModelUpsert represents model catalog get-or-create.
	OpModelUpsert = "model_upsert"
	// OpSchema represents schema creation and seeding.
	OpSchema = "schema"
	// OpSearch represents filtered image searches.
	OpSearch = "search"
	// OpCount represents image count queries.
	OpCount = "count"
)

// Label value constants used for metric labels.
const (
	// StatusSuccess marks a successful operation.
	StatusSuccess = "success"
	// StatusError marks a failed operation.
	StatusError = "error"
	// StatusCommitted marks a committed transaction.
	StatusCommitted = "committed"
	// StatusRollback marks a rolled back transaction.
	StatusRollback = "rollback"
	// CacheHit marks a cache hit.
	CacheHit = "hit"
	// CacheMiss marks a cache miss.
	CacheMiss = "miss"
	// CacheTagDictionary is the cache label for tag dictionary lookups.
	CacheTagDictionary = "tag_dictionary"
)

// Histogram bucket constants.
const (
	// BucketStart1ms is the 1ms start for duration histograms.
	BucketStart1ms = 0.001
	// BucketFactor2 doubles each bucket.
	BucketFactor2 = 2
	// BucketCount15 covers 1ms to ~16s.
	BucketCount15 = 15
	// BucketStart1 is the start for result size histograms.
	BucketStart1 = 1
	// BucketFactor4 quadruples each bucket.
	BucketFactor4 = 4
	// BucketCount8 covers 1 to ~16k results.
	BucketCount8 = 8
)
