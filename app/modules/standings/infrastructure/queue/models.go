package standingsqueue

// RecomputeJob asks the worker to recompute one slate. Uniqueness is
// keyed on the args, so a burst of outcome finalizations for the same
// slate collapses into a single pending job.
type RecomputeJob struct {
	SlateID string `json:"slate_id"`
}

// Kind returns the job type identifier for River.
func (RecomputeJob) Kind() string { return "standings_recompute" }
