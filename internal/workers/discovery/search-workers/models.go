package searchworkers

import (
	"worker-discovery/internal/discovery/eligibility"
	"worker-discovery/internal/models"
)

type Input struct {
	Candidates []models.CandidateWorker `json:"candidates"`
	Context    models.SearchContext     `json:"context"`
	Page       int                      `json:"page,omitempty"`
	Size       int                      `json:"size,omitempty"`
}

type Output struct {
	SearchID      string                `json:"searchId"`
	Results       []models.RankedResult `json:"results"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	HasMore       bool                  `json:"hasMore"`
	Report        eligibility.Report    `json:"report"`
	ConfigVersion string                `json:"configVersion"`
}
