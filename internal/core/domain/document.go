package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusIndexing DocumentStatus = "indexing"
	StatusIndexed  DocumentStatus = "indexed"
	StatusFailed   DocumentStatus = "failed"
)

// Document is the ingestion-side record for one source file dropped into the
// corpus. CorpusPath is the file's logical location within the corpus tree
// (e.g. "Projects/225/225001/04 Reports/report.txt") and is where the folder,
// project-name and year-bucket index fields come from.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	CorpusPath  string         `json:"corpus_path"`
	StoragePath string         `json:"storage_path"`
	Folder      string         `json:"folder"`
	ProjectName string         `json:"project_name,omitempty"`
	YearCode    string         `json:"year_code,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
