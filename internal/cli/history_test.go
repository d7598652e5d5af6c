package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/store"
)

type historyResponse struct {
	Status string         `json:"status"`
	Data   []HistoryEntry `json:"data"`
}

// recordPlans runs the offline planner once per command against db.
func recordPlans(t *testing.T, db string, commands ...[2]string) []string {
	t.Helper()
	ids := make([]string, 0, len(commands))
	for _, c := range commands {
		stdout, _, err := execute(t, "", "plan", c[0], "--scene", c[1], "--offline", "--db", db, "--format", "json")
		require.NoError(t, err)
		resp := decodePlanResponse(t, stdout)
		require.NotEmpty(t, resp.RequestID)
		ids = append(ids, resp.RequestID)
	}
	return ids
}

func TestPlanRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db, [2]string{"pick up the red block", "images/scene1.jpg"})

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadPlan(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "pick up the red block", rec.Command.Text)
	assert.Equal(t, "images/scene1.jpg", rec.Command.ImagePath)
	assert.Equal(t, "scene1", rec.SceneKey)
	assert.Equal(t, HeuristicModel, rec.Model)
	assert.Equal(t, ir.MustPlanHash(rec.Plan), rec.PlanHash)
}

func TestHistoryList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db,
		[2]string{"pick up the red block", "scene1"},
		[2]string{"grab the mug", "scene2"},
		[2]string{"look at the yellow ball", "scene3"},
	)

	stdout, _, err := execute(t, "", "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 3)
	for i, e := range resp.Data {
		assert.Equal(t, ids[i], e.ID)
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, "grab the mug", resp.Data[1].Command)
	assert.Equal(t, "scene2", resp.Data[1].SceneKey)
	assert.Equal(t, 2, resp.Data[1].Actions)
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db,
		[2]string{"pick up the red block", "scene1"},
		[2]string{"grab the mug", "scene2"},
		[2]string{"look at the yellow ball", "scene3"},
	)

	stdout, _, err := execute(t, "", "history", "--db", db, "--limit", "2", "--format", "json")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, ids[1], resp.Data[0].ID)
	assert.Equal(t, ids[2], resp.Data[1].ID)
}

func TestHistoryByScene(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db,
		[2]string{"pick up the red block", "scene1"},
		[2]string{"grab the mug", "scene2"},
		[2]string{"pick up the blue block", "scene1"},
	)

	stdout, _, err := execute(t, "", "history", "--db", db, "--scene", "scene1", "--format", "json")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, ids[0], resp.Data[0].ID)
	assert.Equal(t, ids[2], resp.Data[1].ID)
}

func TestHistoryText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db, [2]string{"pick up the red block", "scene1"})

	stdout, _, err := execute(t, "", "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, ids[0])
	assert.Contains(t, stdout, `"pick up the red block"`)
	assert.Contains(t, stdout, "2 action(s)")
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")

	stdout, _, err := execute(t, "", "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No plans recorded.")

	stdout, _, err = execute(t, "", "history", "--db", db, "--format", "json")
	require.NoError(t, err)
	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestHistoryShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	ids := recordPlans(t, db, [2]string{"grab the mug", "scene2"})

	stdout, _, err := execute(t, "", "history", "--db", db, "--show", ids[0])
	require.NoError(t, err)
	assert.Contains(t, stdout, "ID:       "+ids[0])
	assert.Contains(t, stdout, "Scene:    scene2")
	assert.Contains(t, stdout, `"target": "coffee_mug"`)

	stdout, _, err = execute(t, "", "history", "--db", db, "--show", ids[0], "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data ir.PlanRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, ids[0], resp.Data.ID)
	assert.Equal(t, []string{"coffee_mug", "coffee_mug"}, resp.Data.Plan.Targets())
}

func TestHistoryErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing db", []string{"history"}, ErrCodeGeneric},
		{"negative limit", []string{"history", "--db", db, "--limit", "-1"}, ErrCodeGeneric},
		{"unknown id", []string{"history", "--db", db, "--show", "no-such-id"}, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, strings.HasPrefix(stdout, "Error ["+tt.wantCode+"]"), stdout)
		})
	}
}

func TestHistoryDBFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	recordPlans(t, db, [2]string{"pick up the red block", "scene1"})

	out := &strings.Builder{}
	isolateEnv(t)
	t.Setenv("ROBOPLAN_DB", db)
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"history"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "pick up the red block")
}
