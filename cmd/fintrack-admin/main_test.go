package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears the environment the config loader reads.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "AMQP_URL", "POSTGRES_URL", "GOOGLE_SPREADSHEET_ID", "CATEGORIES"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "admin.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportStatsExport(t *testing.T) {
	db := isolate(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "history.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("amount,category,description\n12.50,food,lunch\n7,Transport,\nabc,food,\n"), 0o600))

	out, err := execute(t, "import", "--sqlite-path", db, "--user", "42", "--file", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 of 3 expenses for user 42 (1 skipped)")

	out, err = execute(t, "stats", "--sqlite-path", db, "--user", "42", "--window", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "All time")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "$12.50")
	assert.Contains(t, out, "$19.50")

	out, err = execute(t, "stats", "--sqlite-path", db, "--user", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses in this period.")

	exportPath := filepath.Join(dir, "out.csv")
	out, err = execute(t, "export", "--sqlite-path", db, "--user", "42", "--format", "csv", "--out", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 expenses")

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Food")
	assert.Contains(t, string(data), "lunch")
}

func TestForecast(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "forecast", "--sqlite-path", db, "--user", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Not enough data")

	csvPath := filepath.Join(t.TempDir(), "one.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("amount,category\n30,Food\n"), 0o600))
	_, err = execute(t, "import", "--sqlite-path", db, "--user", "42", "--file", csvPath)
	require.NoError(t, err)

	out, err = execute(t, "forecast", "--sqlite-path", db, "--user", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Spent so far")
	assert.Contains(t, out, "$30.00")
	assert.Contains(t, out, "no_budget")
	assert.Contains(t, out, "Top drain")
}

func TestCommandErrors(t *testing.T) {
	db := isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"stats without user", []string{"stats", "--sqlite-path", db}, "--user is required"},
		{"bad window", []string{"stats", "--sqlite-path", db, "--user", "1", "--window", "decade"}, "invalid --window"},
		{"unsupported import", []string{"import", "--sqlite-path", db, "--user", "1", "--file", "notes.txt"}, "unsupported file"},
		{"bad export format", []string{"export", "--sqlite-path", db, "--user", "1", "--format", "doc"}, "unknown export format"},
		{"export empty history", []string{"export", "--sqlite-path", db, "--user", "1"}, "has no expenses"},
		{"migrate memory", []string{"migrate", "--backend", "memory"}, "no schema to migrate"},
		{"bad backend", []string{"stats", "--backend", "redis", "--user", "1"}, "invalid data backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMigrate(t *testing.T) {
	db := isolate(t)

	out, err := execute(t, "migrate", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied (sqlite)")

	// Already current.
	_, err = execute(t, "migrate", "--sqlite-path", db)
	require.NoError(t, err)
}
