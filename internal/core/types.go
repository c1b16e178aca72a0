package core

// ArtifactType selects which prompt template and output shape an analysis produces.
type ArtifactType string

const (
	ArtifactPRDAnalysis  ArtifactType = "prd_analysis"  // structured feature list from PRD text
	ArtifactTaskTable    ArtifactType = "task_table"    // per-feature development tasks
	ArtifactFunctionMap  ArtifactType = "function_map"  // markdown function map per feature
	ArtifactDevTree      ArtifactType = "dev_tree"      // markdown tech stack + file structure + roadmap
	ArtifactSystemConfig ArtifactType = "system_config" // markdown architecture + schema + deployment
)

// ArtifactTypes lists the recognized types in generation order.
var ArtifactTypes = []ArtifactType{
	ArtifactPRDAnalysis,
	ArtifactTaskTable,
	ArtifactFunctionMap,
	ArtifactDevTree,
	ArtifactSystemConfig,
}

// Priority levels for features and tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status values for tasks.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Feature is one extracted product feature in canonical form.
// The AI may answer with either Korean or English keys depending on how the
// prompt phrased its instructions; NormalizeFeature collapses both conventions
// into this shape before anything is persisted.
type Feature struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	APIEndpoint   string         `json:"api_endpoint"`
	RequestParams map[string]any `json:"request_params,omitempty"`
	Priority      Priority       `json:"priority"`
	RelatedPages  string         `json:"related_pages,omitempty"`
}

// Task is one development task belonging to a feature, canonical form.
type Task struct {
	Description    string   `json:"description"`
	Assignee       string   `json:"assignee,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	Status         Status   `json:"status"`
	Priority       Priority `json:"priority,omitempty"`
}
