package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/vinayprograms/agentkit/llm"
)

// mockProvider returns canned responses in order.
type mockProvider struct {
	responses []string
	err       error
	calls     int
}

func (m *mockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	resp := ""
	if m.calls < len(m.responses) {
		resp = m.responses[m.calls]
	}
	m.calls++
	return &llm.ChatResponse{Content: resp}, nil
}

func (m *mockProvider) ChatStream(ctx context.Context, req llm.ChatRequest, callback func(string)) (*llm.ChatResponse, error) {
	return m.Chat(ctx, req)
}

func (m *mockProvider) Name() string { return "mock" }

func TestParsePlan(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []PlannedStep
	}{
		{
			name: "plain pairs",
			content: `THOUGHT: list the directory first
ACTION: ls /tmp
THOUGHT: inspect the interesting file
ACTION: cat /tmp/notes.txt`,
			want: []PlannedStep{
				{Action: "ls /tmp", Thought: "list the directory first"},
				{Action: "cat /tmp/notes.txt", Thought: "inspect the interesting file"},
			},
		},
		{
			name: "numbered and bulleted lines",
			content: `1. THOUGHT: check disk usage
2. ACTION: df -h
- thought: count entries
- action: ls /tmp`,
			want: []PlannedStep{
				{Action: "df -h", Thought: "check disk usage"},
				{Action: "ls /tmp", Thought: "count entries"},
			},
		},
		{
			name:    "action without thought",
			content: "ACTION: echo hello",
			want:    []PlannedStep{{Action: "echo hello", Thought: ""}},
		},
		{
			name:    "dangling thought dropped",
			content: "THOUGHT: this never resolves",
			want:    nil,
		},
		{
			name:    "prose only",
			content: "I would suggest listing the directory.",
			want:    nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parsePlan(tc.content)
			if len(got) != len(tc.want) {
				t.Fatalf("parsePlan() = %+v, want %+v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("step[%d] = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestLLMOracle_GeneratePlan(t *testing.T) {
	provider := &mockProvider{responses: []string{
		"THOUGHT: see what is there\nACTION: ls /tmp",
	}}
	oracle := NewLLMOracle(provider)

	steps, err := oracle.GeneratePlan(context.Background(), "list files in /tmp", nil)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	if len(steps) != 1 || steps[0].Action != "ls /tmp" {
		t.Errorf("steps = %+v", steps)
	}
}

func TestLLMOracle_GeneratePlan_Unparseable(t *testing.T) {
	oracle := NewLLMOracle(&mockProvider{responses: []string{"no structure here"}})

	if _, err := oracle.GeneratePlan(context.Background(), "vague", nil); err == nil {
		t.Error("GeneratePlan() = nil error, want unparseable-plan failure")
	}
}

func TestLLMOracle_GeneratePlan_ProviderError(t *testing.T) {
	oracle := NewLLMOracle(&mockProvider{err: errors.New("connection refused")})

	if _, err := oracle.GeneratePlan(context.Background(), "anything", nil); err == nil {
		t.Error("GeneratePlan() = nil error, want provider failure")
	}
}

func TestLLMOracle_Replan_EmptyIsValid(t *testing.T) {
	oracle := NewLLMOracle(&mockProvider{responses: []string{""}})

	steps, err := oracle.Replan(context.Background(), "task_x", []StepResult{
		{Action: "ls /tmp", Observation: "a b c", Reflection: "looks complete"},
	})
	if err != nil {
		t.Fatalf("Replan() error = %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("steps = %+v, want empty", steps)
	}
}
