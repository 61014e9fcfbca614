package resolveworkerstatus

import (
	"time"

	"worker-discovery/internal/models"
)

type Input struct {
	Availability models.WorkerAvailability `json:"availability"`
	Now          time.Time                 `json:"now"`
}

type Output struct {
	Status models.AvailabilityStatus `json:"status"`
	Online bool                      `json:"online"`
	// NextTransition is omitted when the status cannot change without outside input.
	NextTransition *time.Time `json:"nextTransition,omitempty"`
}
