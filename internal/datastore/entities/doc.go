// Package entities defines the GORM entity models for the image metadata store.
//
// # Core Entities
//
//   - Image: canonical record of one distinct source image, unique by perceptual hash
//   - ProcessedImage: derived renditions of an Image (one per size/format)
//   - Model: catalog of annotation producers
//   - ModelType: capability tags (captioner, tagger, scorer, upscaler, llm)
//
// # Annotation Entities
//
// Tag, Caption, Score and Rating rows belong to exactly one Image. A nil
// ModelID marks a manual (human-entered) annotation.
//
// Timestamps are Unix seconds.
package entities
