package filtereligibleworkers

import (
	"worker-discovery/internal/discovery/eligibility"
	"worker-discovery/internal/models"
)

type Input struct {
	Candidates []models.CandidateWorker `json:"candidates"`
	Context    models.SearchContext     `json:"context"`
}

type Output struct {
	Eligible []models.CandidateWorker `json:"eligible"`
	Report   eligibility.Report       `json:"report"`
}
