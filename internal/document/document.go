// Package document handles ingestion of underwriting guideline material:
// PDF validation and text extraction, folder loading, feed ingestion, and
// chunking for retrieval.
package document

// Document is a unit of extracted policy text with its origin.
type Document struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}
