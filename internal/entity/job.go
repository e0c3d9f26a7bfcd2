package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/statement-insights/constants"
)

// Job is one document-processing attempt, owned by the orchestrator.
type Job struct {
	ID              uuid.UUID              `json:"id"`
	Filename        string                 `json:"filename"`
	DocumentType    constants.DocumentType `json:"document_type"`
	Status          constants.JobStatus    `json:"status"`
	WorkDir         string                 `json:"-"`
	InputPath       string                 `json:"-"`
	StartedAt       time.Time              `json:"started_at"`
	FinishedAt      *time.Time             `json:"finished_at,omitempty"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	RawResponsePath *string                `json:"raw_response_path,omitempty"`
	Fallback        bool                   `json:"fallback"`
	Totals          *Totals                `json:"totals,omitempty"`
}
