package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

const workflowJSON = `{
  "steps": [
    {
      "step_id": "1",
      "step_name": "Fetch tickets",
      "description": "Fetch tickets",
      "databases": ["itsm"]
    },
    {
      "step_id": "2",
      "step_name": "Purge archive",
      "description": "Drop the archive table",
      "databases": ["itsm"]
    }
  ]
}`

func writeWorkflow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestClassifyCmd_IsOffline(t *testing.T) {
	assert.Equal(t, wiringOffline, classifyCmd.Annotations[annotationWiring])
}

func TestClassifyCmd_Text(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "classify", writeWorkflow(t, workflowJSON))

	require.NoError(t, err)
	assert.Contains(t, out, "Overall risk: HIGH")
	assert.Contains(t, out, "Steps analyzed: 2")
	assert.Contains(t, out, "High-risk steps:")
	assert.Contains(t, out, "[2] Purge archive (HIGH)")
	assert.NotContains(t, out, "[1] Fetch tickets")
	assert.Contains(t, out, "Database write steps:      1")
}

func TestClassifyCmd_JSONArray(t *testing.T) {
	setupTestServices(t)
	path := writeWorkflow(t, `[
		{"step_id": "1", "step_name": "Charge", "description": "Charge the customer card", "tool": "Fiserv"}
	]`)

	out, err := execute(t, "classify", path, "--json")

	require.NoError(t, err)
	var report domain.WorkflowSecurityReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, domain.SeverityCritical, report.OverallSeverity)
	assert.Equal(t, 1, report.Summary.PaymentProcessingSteps)
	assert.Contains(t, report.Compliance, domain.CompliancePCIDSS)
}

func TestClassifyCmd_Stdin(t *testing.T) {
	setupTestServices(t)
	rootCmd.SetIn(bytes.NewBufferString(workflowJSON))

	// execute replaces stdin, so drive the command directly.
	services = nil
	rootCmd.SetArgs([]string{"classify", "-", "--json"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetIn(os.Stdin)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	require.NoError(t, Execute(t.Context()))

	var report domain.WorkflowSecurityReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.TotalSteps)
}

func TestClassifyCmd_Errors(t *testing.T) {
	setupTestServices(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "classify", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read workflow")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := execute(t, "classify", writeWorkflow(t, "{not json"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid step", func(t *testing.T) {
		_, err := execute(t, "classify", writeWorkflow(t, `[{"step_id": "1"}]`))
		assert.ErrorIs(t, err, domain.ErrInvalidStep)
	})
}

func TestParseWorkflow(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "array", input: `[{"step_id":"1"},{"step_id":"2"}]`, want: 2},
		{name: "wrapped", input: `{"steps":[{"step_id":"1"}]}`, want: 1},
		{name: "empty array", input: `[]`, want: 0},
		{name: "leading whitespace", input: "\n  [{\"step_id\":\"1\"}]", want: 1},
		{name: "empty input", input: "  ", wantErr: true},
		{name: "object without steps", input: `{"name":"x"}`, wantErr: true},
		{name: "wrong type", input: `{"steps":"x"}`, wantErr: true},
		{name: "garbage", input: `steps`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := parseWorkflow([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Len(t, steps, tt.want)
		})
	}
}
