package integrations

import (
	"context"

	"github.com/prdmaker/prdmaker/internal/store"
)

// Service tags for stored integration settings.
const (
	ServiceJira   = "jira"
	ServiceNotion = "notion"
)

// CreatedItem is a feature successfully created in the target system.
type CreatedItem struct {
	FeatureID   string `json:"feature_id"`
	FeatureName string `json:"feature_name"`
	ExternalID  string `json:"external_id"`
	ExternalURL string `json:"external_url,omitempty"`
}

// FailedItem is a feature that could not be created.
type FailedItem struct {
	FeatureID   string `json:"feature_id"`
	FeatureName string `json:"feature_name"`
	Error       string `json:"error"`
}

// PushResult reports per-feature outcomes. A push never rolls back: items
// created before a failure stay created, and the caller sees both lists.
type PushResult struct {
	Created []CreatedItem `json:"created"`
	Failed  []FailedItem  `json:"failed"`
}

// Pusher is the interface both tracker clients implement.
type Pusher interface {
	// Name returns the service identifier for logging.
	Name() string

	// PushFeatures creates one remote record per feature, continuing past
	// individual failures.
	PushFeatures(ctx context.Context, features []store.FeatureRecord) *PushResult
}
