package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alem-hub/curriculum-hub/config"
)

const studentID = "00000000-0000-4000-8000-0000000000c1"

type harness struct {
	t      *testing.T
	dbPath string
	dir    string
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, dir: dir, dbPath: filepath.Join(dir, "cli.db")}
}

func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), append([]string{"--sqlite", h.dbPath, "--no-redis"}, args...), Options{
		Out: &out,
		Err: &errOut,
		LoadConfig: func() (*config.Config, error) {
			return &config.Config{
				App:           config.AppConfig{Name: "curriculumctl", Environment: config.EnvDevelopment},
				Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "text"},
				Progression:   config.ProgressionConfig{DefaultCreditCap: 16, AdvanceWorkers: 2, LockTTL: time.Minute},
			}, nil
		},
	})
	return out.String(), errOut.String(), code
}

func (h *harness) writeFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) importAndRegister() string {
	h.t.Helper()
	path := h.writeFile("informatics.yaml", `
courses:
  - {id: A, code: MAT-1, credits: 6, semester: 1}
  - {id: B, code: FIS-1, credits: 4, semester: 1}
  - {id: C, code: MAT-2, credits: 6, semester: 2, prerequisites: [A]}
`)
	out, errOut, code := h.run("--json", "import", path)
	require.Equal(h.t, 0, code, errOut)

	var results []struct {
		CareerID   string `json:"career_id"`
		CareerName string `json:"career_name"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(out), &results))
	require.Len(h.t, results, 1)
	assert.Equal(h.t, "informatics", results[0].CareerName)

	_, errOut, code = h.run("student", "add", "--id", studentID, "--email", "ana@example.com", "--career", results[0].CareerID)
	require.Equal(h.t, 0, code, errOut)
	return results[0].CareerID
}

func TestCLI_PlanningFlow(t *testing.T) {
	h := newHarness(t)
	h.importAndRegister()

	out, errOut, code := h.run("available", studentID)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "MAT-1")
	assert.NotContains(t, out, "MAT-2")

	out, _, code = h.run("validate", studentID, "C")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "missing A")

	_, errOut, code = h.run("set-status", studentID, "A", "passed")
	require.Equal(t, 0, code, errOut)

	out, _, code = h.run("--json", "suggest", studentID, "--max-credits", "10")
	require.Equal(t, 0, code)
	var suggestion struct {
		TotalCredits int `json:"total_credits"`
		CreditCap    int `json:"max_credits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &suggestion))
	assert.Equal(t, 10, suggestion.CreditCap)
	assert.LessOrEqual(t, suggestion.TotalCredits, 10)

	out, errOut, code = h.run("recompute", studentID)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "1 passed")

	out, _, code = h.run("student", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "ana@example.com")

	out, _, code = h.run("reset", studentID)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "removed 1 course records")
}

func TestCLI_TermControl(t *testing.T) {
	h := newHarness(t)
	h.importAndRegister()

	_, _, code := h.run("term", "set", "3")
	require.Equal(t, 0, code)

	out, errOut, code := h.run("--json", "advance")
	require.Equal(t, 0, code, errOut)
	var res struct {
		NewGlobalTerm int `json:"new_global_semester"`
		StudentsTotal int `json:"students_total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 4, res.NewGlobalTerm)
	assert.Equal(t, 1, res.StudentsTotal)

	out, _, code = h.run("term", "get")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "global term: 4")

	_, errOut, code = h.run("term", "set", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "must be an integer")

	out, _, code = h.run("recompute")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 students")
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("available", "not-a-uuid")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error:")

	cyclic := h.writeFile("loop.json", `{"courses":[{"id":"A","code":"A","prerequisites":["B"]},{"id":"B","code":"B","prerequisites":["A"]}]}`)
	_, errOut, code = h.run("import", cyclic)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "cycle")

	_, _, code = h.run("import", "--name", "x", cyclic, cyclic)
	assert.Equal(t, 1, code)
}

func TestCLI_HashKey(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run("hash-key", "secret")
	require.Equal(t, 0, code)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("secret")))
}
