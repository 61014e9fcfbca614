package rankeligibleworkers

import "worker-discovery/internal/models"

type Input struct {
	Eligible []models.CandidateWorker `json:"eligible"`
	Context  models.SearchContext     `json:"context"`
}

type Output struct {
	Results       []models.RankedResult `json:"results"`
	ConfigVersion string                `json:"configVersion"`
}
