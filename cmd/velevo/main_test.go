package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichaelDuPlessis/velocity-evolver/swarm"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, "decode", "070604020608020000")
	require.NoError(t, err)
	assert.Contains(t, out, "rule:    ((w * v) + (c1 * (p - x)))")
	assert.Contains(t, out, "random:  false")

	_, err = execute(t, "decode", "zz")
	assert.Error(t, err)
}

func TestBenchCommand(t *testing.T) {
	out, err := execute(t, "bench", "--dim", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 14)
	assert.Contains(t, lines[1], "Matyas_3D")
	assert.Contains(t, lines[2], "-1.0316")

	out, err = execute(t, "bench", "--dim", "2", "--classic", "--trials", "2", "--swarm-size", "10", "--iters", "10", "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Eggholder")
	assert.Contains(t, out, "success")
}

func TestBenchTraceDB(t *testing.T) {
	t.Cleanup(func() {
		benchTrace = ""
		benchSwarm = swarm.Config{}
		benchPhi = []float64{2.05, 2.05}
	})
	path := filepath.Join(t.TempDir(), "trace.db")
	_, err := execute(t, "bench", "--dim", "2", "--classic", "--trials", "2", "--swarm-size", "5", "--iters", "4",
		"--seed", "2", "--phi", "2.1,2.0", "--vmax-scale", "0.5", "--grid-step", "0.25", "--trace-db", path)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var rows, tags int
	require.NoError(t, db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT tag) FROM "+swarm.TblBest).Scan(&rows, &tags))
	// four classic functions, two trials of four iterations each
	assert.Equal(t, 32, rows)
	assert.Equal(t, 8, tags)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+swarm.TblParticles+" WHERE tag = ?", "Eggholder/1").Scan(&n))
	assert.Equal(t, 5*4, n)

	_, err = execute(t, "bench", "--phi", "2.05")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "velevo.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
catalog: classic
experiment:
  seed: 3
  fitness:
    runs: 2
    swarm_size: 5
    iterations: 5
`), 0o644))

	_, err := execute(t, "run", "--config", cfg, "--dim", "2", "--rule", "canonical", "--report", "all", "--out", dir, "--log-level", "error")
	require.NoError(t, err)

	for _, name := range []string{"canonical_2.csv", "canonical_stats_2.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		// header, four classic functions and the joint row
		assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 6, name)
	}
}
