package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prdmaker/prdmaker/internal/core"
	"github.com/prdmaker/prdmaker/internal/store"
)

// JiraClient creates one Story issue per feature via the Jira REST API.
type JiraClient struct {
	baseURL    string
	apiKey     string
	projectKey string
	client     *http.Client
}

// NewJiraClient builds a client for a Jira instance. The domain may be a bare
// host ("acme.atlassian.net") or a full URL.
func NewJiraClient(domain, apiKey, projectKey string) *JiraClient {
	baseURL := strings.TrimSuffix(domain, "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &JiraClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		projectKey: projectKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *JiraClient) Name() string {
	return ServiceJira
}

type jiraProjectRef struct {
	Key string `json:"key"`
}

type jiraNameRef struct {
	Name string `json:"name"`
}

type jiraIssueFields struct {
	Project     jiraProjectRef `json:"project"`
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	IssueType   jiraNameRef    `json:"issuetype"`
	Priority    jiraNameRef    `json:"priority"`
	Labels      []string       `json:"labels"`
}

type jiraIssue struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraCreateResponse struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Self    string `json:"self"`
	Message string `json:"message"`
}

func (c *JiraClient) PushFeatures(ctx context.Context, features []store.FeatureRecord) *PushResult {
	result := &PushResult{Created: []CreatedItem{}, Failed: []FailedItem{}}

	for _, feature := range features {
		created, err := c.createIssue(ctx, feature)
		if err != nil {
			result.Failed = append(result.Failed, FailedItem{
				FeatureID:   feature.ID,
				FeatureName: feature.Name,
				Error:       err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, CreatedItem{
			FeatureID:   feature.ID,
			FeatureName: feature.Name,
			ExternalID:  created.Key,
			ExternalURL: created.Self,
		})
	}
	return result
}

func (c *JiraClient) createIssue(ctx context.Context, feature store.FeatureRecord) (*jiraCreateResponse, error) {
	issue := jiraIssue{Fields: jiraIssueFields{
		Project:     jiraProjectRef{Key: c.projectKey},
		Summary:     feature.Name,
		Description: feature.Description,
		IssueType:   jiraNameRef{Name: "Story"},
		Priority:    jiraNameRef{Name: jiraPriorityName(feature.Priority)},
		Labels:      []string{"PRD-Maker"},
	}}

	jsonData, err := json.Marshal(issue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/api/2/issue", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth("admin", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jira API returned status %d: %s", resp.StatusCode, string(body))
	}

	var jiraResp jiraCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&jiraResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &jiraResp, nil
}

// jiraPriorityName maps a canonical priority onto Jira's default scheme.
func jiraPriorityName(p core.Priority) string {
	switch core.NormalizePriority(string(p)) {
	case core.PriorityHigh:
		return "High"
	case core.PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}
