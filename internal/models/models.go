package models

import (
	"image"
	"time"
)

// Document identifies a PDF on disk by its absolute path and modification time.
type Document struct {
	Path        string    `json:"path"`
	ModifiedAt  time.Time `json:"modified_at"`
	Fingerprint string    `json:"fingerprint"`
}

// Page is one rasterized page. It only lives until OCR is done with it.
type Page struct {
	Index int
	Image image.Image
}

// ExtractionRecord is the persisted OCR output for one document fingerprint.
type ExtractionRecord struct {
	Fingerprint string    `db:"fingerprint" json:"fingerprint"`
	SourcePath  string    `db:"source_path" json:"source_path"`
	ModifiedAt  time.Time `db:"modified_at" json:"modified_at"`
	ExtractedAt time.Time `db:"extracted_at" json:"extracted_at"`
	Text        string    `db:"text" json:"text"`
}

// Chunk is one retrieval unit. Ordinal is its position after dedup and filtering.
type Chunk struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// Embedding is a vector owned by the exact text it was computed from.
type Embedding struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// EmbeddedChunk pairs a chunk with its vector for ranking.
type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

// RankedResult is a chunk that cleared the similarity threshold.
type RankedResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// PageProgress is emitted once per completed page during OCR.
type PageProgress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// LoadedDocument is the in-memory result of extracting and chunking a PDF.
type LoadedDocument struct {
	Document    Document `json:"document"`
	Text        string   `json:"-"`
	Chunks      []Chunk  `json:"chunks"`
	FromCache   bool     `json:"from_cache"`
	PageCount   int      `json:"page_count"`
	FailedPages []int    `json:"failed_pages,omitempty"`
}

// Answer is the response to a question against a loaded document.
type Answer struct {
	Question string         `json:"question"`
	Results  []RankedResult `json:"results"`
	Text     string         `json:"answer,omitempty"`
	// SynthesisError is set when results were found but no answer could be generated.
	SynthesisError string `json:"synthesis_error,omitempty"`
}

// Session statuses.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// Session tracks a document loaded through the service layer.
type Session struct {
	ID        string          `json:"id"`
	Path      string          `json:"path"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Progress  PageProgress    `json:"progress"`
	Document  *LoadedDocument `json:"document,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
