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
	"golang.org/x/crypto/bcrypt"

	"github.com/alem-hub/roster-insights/internal/domain/report"
)

const rosterCSV = "ΟΝΟΜΑ;ΤΜΗΜΑ;ΦΥΛΟ;ΦΙΛΟΙ;ΣΥΓΚΡΟΥΣΗ\n" +
	"Γιώργος;Α1;Α;Άννα;Νίκος\n" +
	"Άννα;Α2;Κ;Γιώργος;\n" +
	"Νίκος;Α1;Α;;\n"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	profilePath, statisticsCSV, conflictsCSV, brokenPairsCSV, outputPath, verbose = "", "", "", "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(input, []byte(rosterCSV), 0o600))
	statsPath := filepath.Join(dir, "stats.csv")

	out, err := execute(t, "", "analyze", input, "--statistics-csv", statsPath)
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 3, rep.RowCount)
	require.Len(t, rep.BrokenPairs, 1)
	assert.Equal(t, "Γιώργος", rep.BrokenPairs[0].A)
	require.Len(t, rep.ConflictingStudents, 1)

	csv, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(csv), "Α1"))
	assert.True(t, strings.Contains(string(csv), "Α2"))
}

func TestAnalyze_DetailTables(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(input, []byte(rosterCSV), 0o600))
	conflictsPath := filepath.Join(dir, "conflicts.csv")
	pairsPath := filepath.Join(dir, "pairs.csv")

	_, err := execute(t, "", "analyze", input, "--conflicts-csv", conflictsPath, "--broken-pairs-csv", pairsPath)
	require.NoError(t, err)

	conflicts, err := os.ReadFile(conflictsPath)
	require.NoError(t, err)
	assert.Contains(t, string(conflicts), "ΟΝΟΜΑ,ΤΜΗΜΑ,ΣΥΓΚΡΟΥΣΗ_ΠΛΗΘΟΣ,ΣΥΓΚΡΟΥΣΗ_ΟΝΟΜΑ\n")
	assert.Contains(t, string(conflicts), "Γιώργος,Α1,1,Νίκος\n")

	pairs, err := os.ReadFile(pairsPath)
	require.NoError(t, err)
	assert.Contains(t, string(pairs), "A,A_ΤΜΗΜΑ,B,B_ΤΜΗΜΑ\n")
	assert.Contains(t, string(pairs), "Γιώργος,Α1,Άννα,Α2\n")
}

func TestAnalyze_OutputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(input, []byte(rosterCSV), 0o600))
	outPath := filepath.Join(dir, "report.json")

	out, err := execute(t, "", "analyze", input, "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "", "analyze", filepath.Join(dir, "roster.xlsx"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = execute(t, "", "analyze", filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "", "analyze")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "s3cret\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = execute(t, "\n", "hash-password")
	assert.ErrorContains(t, err, "empty password")
}
