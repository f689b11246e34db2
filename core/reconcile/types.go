package reconcile

// Result is the reconciliation output for a single object key.
type Result struct {
	Key            string `json:"key"`
	Owner          string `json:"owner,omitempty"`
	DBPresent      bool   `json:"db_present"`
	StoragePresent bool   `json:"storage_present"`
}

// InSync reports whether the key is both referenced and stored.
func (r Result) InSync() bool {
	return r.DBPresent && r.StoragePresent
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDeleteStorage deletes an unreferenced object.
	ActionDeleteStorage ActionType = "delete_storage"
	// ActionClearReference clears a database reference to a missing object.
	ActionClearReference ActionType = "clear_reference"
)

// Action represents a planned mutation operation.
type Action struct {
	Type   ActionType `json:"type"`
	Key    string     `json:"key"`
	Reason string     `json:"reason"`
}

// Plan contains reconciliation results and planned actions.
type Plan struct {
	Results []Result `json:"results"`
	Actions []Action `json:"actions"`
	Summary Summary  `json:"summary"`
}

// Summary provides aggregate counts for a plan.
type Summary struct {
	TotalItems     int `json:"total_items"`
	InSync         int `json:"in_sync"`
	MissingStorage int `json:"missing_storage"`
	Orphaned       int `json:"orphaned"`
	Skipped        int `json:"skipped"`
}

// Options controls whether ApplyPlan mutates anything.
type Options struct {
	DryRun bool
	// Confirmed must be true for any mutation to run.
	Confirmed bool
}
