package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips markdown fences and surrounding prose from LLM output,
// returning the first JSON array or object found.
func ExtractJSON(output string) (string, error) {
	output = strings.TrimSpace(output)

	// Remove markdown fences if present
	if strings.HasPrefix(output, "```json") {
		output = strings.TrimPrefix(output, "```json")
		output = strings.TrimSuffix(output, "```")
		output = strings.TrimSpace(output)
	} else if strings.HasPrefix(output, "```") {
		output = strings.TrimPrefix(output, "```")
		output = strings.TrimSuffix(output, "```")
		output = strings.TrimSpace(output)
	}

	arrStart := strings.Index(output, "[")
	objStart := strings.Index(output, "{")

	// Prefer the array when it encloses the objects
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		end := strings.LastIndex(output, "]")
		if end > arrStart {
			return output[arrStart : end+1], nil
		}
	}
	if objStart != -1 {
		end := strings.LastIndex(output, "}")
		if end > objStart {
			return output[objStart : end+1], nil
		}
	}
	return "", fmt.Errorf("no valid JSON found in response")
}

// ExtractRecords returns the raw record maps from LLM output. Some models
// wrap the array in an object with a single key; both shapes are accepted.
func ExtractRecords(output string) ([]map[string]any, error) {
	jsonStr, err := ExtractJSON(output)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		var wrapper map[string][]map[string]any
		if werr := json.Unmarshal([]byte(jsonStr), &wrapper); werr != nil {
			return nil, err
		}
		for _, v := range wrapper {
			raw = v
			break
		}
	}
	return raw, nil
}

// ParseFeatures extracts and normalizes the feature list from raw LLM output.
func ParseFeatures(output string) ([]Feature, error) {
	raw, err := ExtractRecords(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature JSON: %w", err)
	}

	features := make([]Feature, 0, len(raw))
	for _, record := range raw {
		features = append(features, NormalizeFeature(record))
	}
	return features, nil
}

// ParseTasks extracts and normalizes the task list from raw LLM output.
func ParseTasks(output string) ([]Task, error) {
	raw, err := ExtractRecords(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task JSON: %w", err)
	}

	tasks := make([]Task, 0, len(raw))
	for _, record := range raw {
		tasks = append(tasks, NormalizeTask(record))
	}
	return tasks, nil
}
