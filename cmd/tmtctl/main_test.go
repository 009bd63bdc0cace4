package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmtops/api/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(config.Config{TaskHorizonYears: 2})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTasksCommand(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "days.txt")
	require.NoError(t, os.WriteFile(cal, []byte("# june\n03/06/2024\n10/06/2024\n\n17/06/2024\n"), 0o600))

	out, err := run(t, "tasks", "--start", "01/06/2024", "--frequency", "weekly", "--calendar", cal)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"03/06/2024", "10/06/2024", "17/06/2024", "3 occurrence(s), sheet Checklist"}, lines)

	_, err = run(t, "tasks", "--start", "01/06/2024", "--frequency", "hourly")
	assert.Error(t, err)

	_, err = run(t, "tasks", "--start", "01/06/2024", "--frequency", "daily", "--strict")
	assert.Error(t, err)
}

func TestReadCalendarRejectsGarbage(t *testing.T) {
	_, err := readCalendar(strings.NewReader("03/06/2024\nsoon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCostCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":[
		{"particulars":"Sponge Iron","yield":90,"fem":60,"price":1000,"percent":60},
		{"particulars":"Scrap","yield":"95","fem":0,"price":1500,"percent":40}
	]}`), 0o600))

	out, err := run(t, "cost", "--file", path, "--mfg", "100")
	require.NoError(t, err)
	var totals map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &totals))
	assert.Equal(t, "100.00", totals["percentTotal"])
	assert.Equal(t, "1200.00", totals["price2Total"])

	_, err = run(t, "cost", "--file", path, "--mfg", "lots")
	assert.Error(t, err)
}

func TestNextCN(t *testing.T) {
	out, err := run(t, "next-cn", "CN-001", "CN-009", "draft")
	require.NoError(t, err)
	assert.Equal(t, "CN-010\n", out)

	out, err = run(t, "next-cn")
	require.NoError(t, err)
	assert.Equal(t, "CN-001\n", out)
}
