package core

import (
	"strconv"
	"strings"
)

// Candidate keys per canonical field, localized key first. The model answers
// with whichever convention the prompt happened to use, so every lookup walks
// the candidates in order and takes the first value present.
var (
	featureNameKeys        = []string{"기능_이름", "name"}
	featureDescriptionKeys = []string{"기능_설명", "description"}
	featureEndpointKeys    = []string{"API_Endpoint", "api_endpoint"}
	featureParamsKeys      = []string{"요청_파라미터", "request_params", "request_parameters"}
	featurePriorityKeys    = []string{"우선순위", "priority"}
	featurePagesKeys       = []string{"관련_페이지", "related_pages"}

	taskDescriptionKeys = []string{"작업_내용", "task", "description"}
	taskAssigneeKeys    = []string{"담당자", "assignee"}
	taskStatusKeys      = []string{"상태", "status"}
	taskHoursKeys       = []string{"예상_소요_시간", "estimated_hours"}
	taskPriorityKeys    = []string{"우선순위", "priority"}
)

// NormalizeFeature collapses a raw AI feature record into canonical form.
// Total: absent fields get defaults, never an error.
func NormalizeFeature(raw map[string]any) Feature {
	return Feature{
		Name:          firstString(raw, featureNameKeys),
		Description:   firstString(raw, featureDescriptionKeys),
		APIEndpoint:   firstString(raw, featureEndpointKeys),
		RequestParams: firstMap(raw, featureParamsKeys),
		Priority:      NormalizePriority(firstString(raw, featurePriorityKeys)),
		RelatedPages:  firstString(raw, featurePagesKeys),
	}
}

// NormalizeTask collapses a raw AI task record into canonical form.
func NormalizeTask(raw map[string]any) Task {
	t := Task{
		Description:    firstString(raw, taskDescriptionKeys),
		Assignee:       firstString(raw, taskAssigneeKeys),
		EstimatedHours: firstNumber(raw, taskHoursKeys),
		Status:         NormalizeStatus(firstString(raw, taskStatusKeys)),
	}
	if p := firstString(raw, taskPriorityKeys); p != "" {
		t.Priority = NormalizePriority(p)
	}
	return t
}

// NormalizePriority collapses either naming convention to one of the three
// canonical levels. Unrecognized or empty input defaults to medium.
func NormalizePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "높음", "high":
		return PriorityHigh
	case "낮음", "low":
		return PriorityLow
	case "중간", "medium":
		return PriorityMedium
	default:
		return PriorityMedium
	}
}

// NormalizeStatus collapses either naming convention to a canonical task
// status. Unrecognized or empty input defaults to pending.
func NormalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "진행 중", "진행중", "in_progress", "in-progress":
		return StatusInProgress
	case "완료", "done":
		return StatusDone
	case "대기", "pending":
		return StatusPending
	default:
		return StatusPending
	}
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func firstMap(raw map[string]any, keys []string) map[string]any {
	for _, key := range keys {
		if m, ok := raw[key].(map[string]any); ok && len(m) > 0 {
			return m
		}
	}
	return nil
}

func firstNumber(raw map[string]any, keys []string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case int:
			f := float64(n)
			return &f
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
