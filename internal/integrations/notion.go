package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prdmaker/prdmaker/internal/store"
)

const (
	defaultNotionBaseURL = "https://api.notion.com"
	notionVersion        = "2022-06-28"
)

// NotionClient creates one database page per feature via the Notion API.
type NotionClient struct {
	baseURL    string
	apiKey     string
	databaseID string
	client     *http.Client
}

// NewNotionClient builds a client for a Notion database.
func NewNotionClient(apiKey, databaseID string) *NotionClient {
	return &NotionClient{
		baseURL:    defaultNotionBaseURL,
		apiKey:     apiKey,
		databaseID: databaseID,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NotionClient) Name() string {
	return ServiceNotion
}

func (c *NotionClient) PushFeatures(ctx context.Context, features []store.FeatureRecord) *PushResult {
	result := &PushResult{Created: []CreatedItem{}, Failed: []FailedItem{}}

	for _, feature := range features {
		id, url, err := c.createPage(ctx, feature)
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
			ExternalID:  id,
			ExternalURL: url,
		})
	}
	return result
}

func (c *NotionClient) createPage(ctx context.Context, feature store.FeatureRecord) (string, string, error) {
	page := notionPage(feature, c.databaseID)

	jsonData, err := json.Marshal(page)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("notion API returned status %d: %s", resp.StatusCode, string(body))
	}

	var notionResp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&notionResp); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}
	return notionResp.ID, notionResp.URL, nil
}

// notionPage builds the page payload: title/description/API/priority
// properties plus detail blocks for the feature body.
func notionPage(feature store.FeatureRecord, databaseID string) map[string]any {
	endpoint := feature.APIEndpoint
	if endpoint == "" {
		endpoint = "N/A"
	}

	return map[string]any{
		"parent": map[string]any{"database_id": databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []any{notionText(feature.Name)},
			},
			"Description": map[string]any{
				"rich_text": []any{notionText(feature.Description)},
			},
			"API": map[string]any{
				"rich_text": []any{notionText(feature.APIEndpoint)},
			},
			"Priority": map[string]any{
				"select": map[string]any{"name": string(feature.Priority)},
			},
			"Status": map[string]any{
				"select": map[string]any{"name": "pending"},
			},
		},
		"children": []any{
			notionHeading("기능 상세"),
			map[string]any{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []any{notionText(feature.Description)},
				},
			},
			notionHeading("API 엔드포인트"),
			map[string]any{
				"object": "block",
				"type":   "code",
				"code": map[string]any{
					"language":  "plain text",
					"rich_text": []any{notionText(endpoint)},
				},
			},
		},
	}
}

func notionText(content string) map[string]any {
	return map[string]any{
		"text": map[string]any{"content": content},
	}
}

func notionHeading(content string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "heading_2",
		"heading_2": map[string]any{
			"rich_text": []any{notionText(content)},
		},
	}
}
