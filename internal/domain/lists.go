package domain

// Storage keys for each persisted list. The names match the layout used by
// earlier browser builds so exported data stays compatible.
const (
	KeyRead            = "read"
	KeyRecommendations = "recommendations_obj"
	KeyProposed        = "proposed"
	KeyRemoved         = "removed"
	KeyCredential      = "token"
)

// GenerationStatus is the lifecycle state of a recommendation generation task.
type GenerationStatus string

// Generation states.
const (
	GenerationRunning   GenerationStatus = "running"
	GenerationSucceeded GenerationStatus = "succeeded"
	GenerationEmpty     GenerationStatus = "empty"
	GenerationFailed    GenerationStatus = "failed"
	GenerationCancelled GenerationStatus = "cancelled"
)

// Terminal reports whether the task has finished.
func (s GenerationStatus) Terminal() bool {
	return s != GenerationRunning
}
