package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/roboplan/internal/config"
	"github.com/roach88/roboplan/internal/synth"
)

// isolateEnv clears every environment variable config.Load consults so a
// developer's shell cannot leak into command tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{synth.APIKeyEnv, config.EnvModel, config.EnvBaseURL, config.EnvCatalog, config.EnvDB} {
		t.Setenv(key, "")
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const shelfCatalog = `default: shelf
scenes:
  - key: shelf
    description: Pantry shelf with a jar
    objects:
      - name: glass_jar
        object_type: jar
        position: {x: 0.1, y: 0.4, z: 0.3}
        confidence: 0.9
  - key: bench
    description: Workbench with a wrench
    objects:
      - name: wrench
        object_type: tool
        position: {x: 0.6, y: -0.1, z: 0.0}
`
