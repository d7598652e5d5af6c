package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roboplan/internal/ir"
)

// fakeLLM serves /chat/completions with a fixed status and content and
// counts requests.
type fakeLLM struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newFakeLLM(t *testing.T, status int, content string) *fakeLLM {
	t.Helper()
	f := &fakeLLM{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": {"message": "upstream failure", "type": "server_error"}}`))
			return
		}
		body, err := json.Marshal(map[string]any{
			"id":    "chatcmpl-test",
			"model": "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
		require.NoError(t, err)
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// configFile writes a config pointing the client at the fake service,
// with retries disabled.
func (f *fakeLLM) configFile(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "roboplan.yaml", fmt.Sprintf(
		"api_key: test-key\nbase_url: %s\nmodel: test-model\nmax_retries: 0\n", f.srv.URL))
}

type planResponse struct {
	Status    string     `json:"status"`
	Data      PlanOutput `json:"data"`
	Error     *CLIError  `json:"error"`
	RequestID string     `json:"request_id"`
}

func decodePlanResponse(t *testing.T, stdout string) planResponse {
	t.Helper()
	var resp planResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	return resp
}

func TestPlanOffline(t *testing.T) {
	stdout, _, err := execute(t, "", "plan", "pick up the red block", "--scene", "scene1", "--offline")
	require.NoError(t, err)

	var plan ir.ActionPlan
	require.NoError(t, json.Unmarshal([]byte(stdout), &plan))
	assert.Equal(t, []string{"red_block", "red_block"}, plan.Targets())
	assert.Equal(t, ir.ActionMoveTo, plan.Actions[0].Type)
	assert.Equal(t, ir.ActionGrasp, plan.Actions[1].Type)
}

func TestPlanOfflineJSON(t *testing.T) {
	stdout, _, err := execute(t, "", "plan", "look at the yellow ball", "--scene", "images/scene3.jpg", "--offline", "--format", "json")
	require.NoError(t, err)

	resp := decodePlanResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "look at the yellow ball", resp.Data.Command)
	assert.Equal(t, "scene3", resp.Data.SceneKey)
	assert.Equal(t, HeuristicModel, resp.Data.Model)
	assert.Equal(t, ir.MustPlanHash(resp.Data.Plan), resp.Data.PlanHash)
	assert.Equal(t, []string{"yellow_ball"}, resp.Data.Plan.Targets())
	assert.Empty(t, resp.RequestID)
}

func TestPlanUnknownSceneFallsBack(t *testing.T) {
	stdout, _, err := execute(t, "", "plan", "pick up the red block", "--scene", "photos/kitchen.png", "--offline", "--format", "json")
	require.NoError(t, err)

	resp := decodePlanResponse(t, stdout)
	assert.Equal(t, "default", resp.Data.SceneKey)
	assert.Equal(t, []string{"red_block", "red_block"}, resp.Data.Plan.Targets())
}

func TestPlanPrettyOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plan.json")
	stdout, _, err := execute(t, "", "plan", "grab the mug", "--scene", "scene2", "--offline", "--pretty", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Plan written to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"actions\": [")

	var plan ir.ActionPlan
	require.NoError(t, json.Unmarshal(data, &plan))
	assert.Equal(t, []string{"coffee_mug", "coffee_mug"}, plan.Targets())
}

func TestPlanCustomCatalog(t *testing.T) {
	catalog := writeFile(t, t.TempDir(), "catalog.yaml", shelfCatalog)

	stdout, _, err := execute(t, "", "plan", "pick up the wrench", "--catalog", catalog, "--scene", "bench", "--offline", "--format", "json")
	require.NoError(t, err)

	resp := decodePlanResponse(t, stdout)
	assert.Equal(t, "bench", resp.Data.SceneKey)
	assert.Equal(t, []string{"wrench", "wrench"}, resp.Data.Plan.Targets())
}

func TestPlanVerboseSummary(t *testing.T) {
	stdout, stderr, err := execute(t, "", "plan", "pick up the red block", "--offline", "-v", "--format", "json")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Scene: default")
	assert.Contains(t, stderr, "1. move to red_block (right hand)")
	assert.Contains(t, stderr, "2. grasp red_block (right hand)")
	// Verbose output never corrupts the JSON on stdout.
	assert.Equal(t, "ok", decodePlanResponse(t, stdout).Status)
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"empty command", []string{"plan", "   ", "--offline"}, ExitFailure, ErrCodeValidation},
		{"missing API key", []string{"plan", "pick up the red block"}, ExitCommandError, ErrCodeMissingAPIKey},
		{"missing catalog", []string{"plan", "pick it up", "--offline", "--catalog", "/nonexistent/catalog.yaml"}, ExitCommandError, ErrCodeCatalog},
		{"missing config", []string{"plan", "pick it up", "--offline", "--config", "/nonexistent/roboplan.yaml"}, ExitCommandError, ErrCodeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "", append(tt.args, "--format", "json")...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodePlanResponse(t, stdout)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestPlanMissingArgument(t *testing.T) {
	_, _, err := execute(t, "", "plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestPlanWithModelService(t *testing.T) {
	llm := newFakeLLM(t, http.StatusOK, "```json\n"+`{
		"actions": [
			{"type": "move to", "target": "blue_block", "position": {"x": 0.3, "y": 0.1, "z": 0.0}},
			{"type": "grasp", "target": "blue_block", "end_effector": "left hand", "parameters": {"force": 0.5}}
		],
		"confidence": 0.8,
		"reasoning": "blue block is closest"
	}`+"\n```")

	stdout, _, err := execute(t, "", "plan", "grab the blue block", "--scene", "scene1", "--config", llm.configFile(t), "--format", "json")
	require.NoError(t, err)

	resp := decodePlanResponse(t, stdout)
	assert.Equal(t, "test-model", resp.Data.Model)
	assert.Equal(t, "blue block is closest", resp.Data.Plan.Reasoning)
	assert.Equal(t, 0.8, resp.Data.Plan.Confidence)
	require.Len(t, resp.Data.Plan.Actions, 2)
	assert.Equal(t, "left hand", resp.Data.Plan.Actions[1].EndEffector)
	assert.Equal(t, ir.Float(0.5), resp.Data.Plan.Actions[1].Parameters["force"])
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestPlanModelFlagOverridesConfig(t *testing.T) {
	llm := newFakeLLM(t, http.StatusOK, `{"actions": [], "confidence": 0.1}`)

	stdout, _, err := execute(t, "", "plan", "wave", "--config", llm.configFile(t), "--model", "other-model", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "other-model", decodePlanResponse(t, stdout).Data.Model)
}

func TestPlanSynthesisFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		content   string
		args      []string
		wantSynth string
	}{
		{
			name:      "invalid action type",
			status:    http.StatusOK,
			content:   `{"actions": [{"type": "teleport", "target": "red_block"}], "confidence": 0.9}`,
			wantSynth: "SCHEMA_VIOLATION",
		},
		{
			name:      "no JSON in reply",
			status:    http.StatusOK,
			content:   "I cannot help with that.",
			wantSynth: "MALFORMED_OUTPUT",
		},
		{
			name:      "service error",
			status:    http.StatusInternalServerError,
			wantSynth: "TRANSPORT_FAILED",
		},
		{
			name:      "strict rejects ungrounded target",
			status:    http.StatusOK,
			content:   `{"actions": [{"type": "grasp", "target": "purple_cube"}], "confidence": 0.9}`,
			args:      []string{"--strict"},
			wantSynth: "INVALID_PLAN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := newFakeLLM(t, tt.status, tt.content)
			args := append([]string{"plan", "do something", "--scene", "scene1", "--config", llm.configFile(t), "--format", "json"}, tt.args...)

			stdout, _, err := execute(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodePlanResponse(t, stdout)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeSynthesis, resp.Error.Code)
			details, ok := resp.Error.Details.(map[string]any)
			require.True(t, ok, "details: %#v", resp.Error.Details)
			assert.Equal(t, tt.wantSynth, details["synthesis_code"])
		})
	}
}

func TestPlanUngroundedAcceptedWithoutStrict(t *testing.T) {
	llm := newFakeLLM(t, http.StatusOK, `{"actions": [{"type": "grasp", "target": "purple_cube"}], "confidence": 0.9}`)

	stdout, _, err := execute(t, "", "plan", "grab the purple cube", "--config", llm.configFile(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, `"target":"purple_cube"`)
}
