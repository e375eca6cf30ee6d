package usecases

import (
	"github.com/sglre6355/djbot/internal/modules/discjockey/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Job is an alias for domain.Job.
type Job = domain.Job

// JobID is an alias for domain.JobID.
type JobID = domain.JobID

// MediaReference is an alias for domain.MediaReference.
type MediaReference = domain.MediaReference
