package entity

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/statement-insights/constants"
)

// ProcessingResult is what a submission hands back to the caller. Exactly one of
// Summary, Document or Failure is set.
type ProcessingResult struct {
	JobID           uuid.UUID              `json:"jobId"`
	DocumentType    constants.DocumentType `json:"documentType"`
	Status          constants.JobStatus    `json:"status"`
	Summary         *StatementSummary      `json:"summary,omitempty"`
	Totals          *Totals                `json:"totals,omitempty"`
	Document        *IdentityDocument      `json:"document,omitempty"`
	Fallback        bool                   `json:"fallback,omitempty"`
	RawResponsePath string                 `json:"rawResponsePath,omitempty"`
	Failure         *Failure               `json:"failure,omitempty"`
}

// Failure describes a job that ended in FAILED.
type Failure struct {
	Code          string `json:"code"`
	Reason        string `json:"reason"`
	PartialOutput string `json:"partialOutput,omitempty"`
}

func (r *ProcessingResult) Succeeded() bool {
	return r != nil && r.Status == constants.JobStatusSucceeded
}
