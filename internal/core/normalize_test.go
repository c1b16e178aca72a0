package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeFeature(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Feature
	}{
		{
			name: "korean keys",
			raw: map[string]any{
				"기능_이름":         "로그인",
				"기능_설명":         "이메일 로그인",
				"API_Endpoint":  "/api/auth/login",
				"요청_파라미터":       map[string]any{"email": "string"},
				"우선순위":          "높음",
				"관련_페이지":        "/login",
			},
			want: Feature{
				Name:          "로그인",
				Description:   "이메일 로그인",
				APIEndpoint:   "/api/auth/login",
				RequestParams: map[string]any{"email": "string"},
				Priority:      PriorityHigh,
				RelatedPages:  "/login",
			},
		},
		{
			name: "english keys",
			raw: map[string]any{
				"name":         "Login",
				"description":  "Email login",
				"api_endpoint": "/api/auth/login",
				"priority":     "low",
			},
			want: Feature{
				Name:        "Login",
				Description: "Email login",
				APIEndpoint: "/api/auth/login",
				Priority:    PriorityLow,
			},
		},
		{
			name: "localized key wins over english",
			raw: map[string]any{
				"기능_이름": "로그인",
				"name":  "Login",
				"우선순위":  "높음",
				"priority": "low",
			},
			want: Feature{Name: "로그인", Priority: PriorityHigh},
		},
		{
			name: "missing fields get defaults",
			raw:  map[string]any{},
			want: Feature{Priority: PriorityMedium},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFeature(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeFeature() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeFeatureIdempotent(t *testing.T) {
	// Normalizing an already-canonical record must not change it.
	first := NormalizeFeature(map[string]any{
		"기능_이름": "검색",
		"기능_설명": "키워드 검색",
		"우선순위":  "높음",
	})

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var roundTripped map[string]any
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	second := NormalizeFeature(roundTripped)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed the record: %+v vs %+v", first, second)
	}
}

func TestNormalizeTask(t *testing.T) {
	hours := 8.0
	tests := []struct {
		name string
		raw  map[string]any
		want Task
	}{
		{
			name: "korean prompt shape",
			raw: map[string]any{
				"task":            "로그인 API 구현",
				"estimated_hours": 8.0,
				"status":          "대기",
			},
			want: Task{Description: "로그인 API 구현", EstimatedHours: &hours, Status: StatusPending},
		},
		{
			name: "hours as string",
			raw:  map[string]any{"task": "t", "estimated_hours": "8"},
			want: Task{Description: "t", EstimatedHours: &hours, Status: StatusPending},
		},
		{
			name: "in progress status variants",
			raw:  map[string]any{"task": "t", "상태": "진행 중"},
			want: Task{Description: "t", Status: StatusInProgress},
		},
		{
			name: "defaults",
			raw:  map[string]any{},
			want: Task{Status: StatusPending},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTask(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeTask() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
	}{
		{"높음", PriorityHigh},
		{"high", PriorityHigh},
		{"HIGH", PriorityHigh},
		{" 낮음 ", PriorityLow},
		{"low", PriorityLow},
		{"중간", PriorityMedium},
		{"medium", PriorityMedium},
		{"", PriorityMedium},
		{"urgent", PriorityMedium},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.in); got != tt.want {
			t.Errorf("NormalizePriority(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"대기", StatusPending},
		{"pending", StatusPending},
		{"진행 중", StatusInProgress},
		{"진행중", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"완료", StatusDone},
		{"done", StatusDone},
		{"", StatusPending},
		{"blocked", StatusPending},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
