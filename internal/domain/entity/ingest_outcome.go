package entity

import "time"

// IngestResult classifies the terminal outcome of one pipeline pass over
// a candidate Article.
type IngestResult string

const (
	IngestStored    IngestResult = "stored"
	IngestDuplicate IngestResult = "duplicate"
	IngestInvalid   IngestResult = "invalid"
)

// IngestOutcome is the per-article event the Ingestion Pipeline emits to
// the Lineage & Health Monitor, mirroring FetchOutcome's shape for the
// ingestion side of the pipeline.
type IngestOutcome struct {
	URL       string
	Source    Source
	ArticleID string
	Result    IngestResult
	Reason    string // populated when Result is Invalid or Duplicate
	Timestamp time.Time
}
