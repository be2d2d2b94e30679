package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayasyrev/nbmetaclean/internal/batch"
	"github.com/ayasyrev/nbmetaclean/internal/version"
	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

const cleanNB = `{
 "cells": [
  {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": "1 + 1"}
 ],
 "metadata": {"language_info": {"name": "python"}},
 "nbformat": 4,
 "nbformat_minor": 5
}
`

const dirtyNB = `{
 "cells": [
  {"cell_type": "code", "execution_count": 1, "metadata": {"scrolled": true}, "source": "1 + 1",
   "outputs": [{"output_type": "execute_result", "execution_count": 1, "metadata": {}, "data": {"text/plain": ["2"]}}]},
  {"cell_type": "code", "execution_count": 2, "metadata": {}, "source": "raise ValueError",
   "outputs": [{"output_type": "error", "ename": "ValueError", "evalue": "", "traceback": []}]},
  {"cell_type": "code", "execution_count": 3, "metadata": {}, "source": "import warnings",
   "outputs": [{"output_type": "stream", "name": "stderr", "text": "UserWarning\n"}]}
 ],
 "metadata": {"kernelspec": {"name": "python3", "display_name": "Python 3"}, "language_info": {"name": "python"}},
 "nbformat": 4,
 "nbformat_minor": 5
}`

const gapNB = `{
 "cells": [
  {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [], "source": "a = 1"},
  {"cell_type": "code", "execution_count": 3, "metadata": {}, "outputs": [], "source": "b = 2"}
 ],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`

var oldTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// workdir moves the test into an empty directory so no pyproject.toml or
// config file from the environment is picked up.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

func writeNB(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, oldTime, oldTime))
	return path
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := runWithStderr(t, cmd, args...)
	return stdout, err
}

func runWithStderr(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		// cobra falls back to os.Args for nil args.
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestClean_DirtyNotebook(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	out, err := run(t, NewRootCmd(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cleaned: " + path}, lines(out))

	nb, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Nil(t, nb.Cells[0].ExecutionCount)
	assert.Empty(t, nb.Cells[0].Metadata)
	assert.Len(t, nb.Cells[0].Outputs, 1)
	assert.Contains(t, nb.Metadata, "language_info")
	assert.NotContains(t, nb.Metadata, "kernelspec")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(oldTime), "timestamp preserved")
}

func TestClean_AlreadyClean(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", cleanNB)

	out, err := run(t, NewRootCmd(), path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cleanNB, string(data), "unchanged notebooks are not rewritten")
}

func TestClean_DefaultPathIsCurrentDir(t *testing.T) {
	dir := workdir(t)
	writeNB(t, dir, "a.ipynb", dirtyNB)
	writeNB(t, dir, "sub/b.ipynb", dirtyNB)
	writeNB(t, dir, ".ipynb_checkpoints/c.ipynb", dirtyNB)

	out, err := run(t, NewRootCmd())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cleaned: 2 notebooks",
		"- a.ipynb",
		"- " + filepath.Join("sub", "b.ipynb"),
	}, lines(out))
}

func TestClean_Verbose(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", cleanNB)

	out, err := run(t, NewRootCmd(), "-V", path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Path: " + path + ", preserve timestamp: True",
		"checked: 1 notebooks",
	}, lines(out))

	out, err = run(t, NewRootCmd(), "--verbose", "--not-pt", path)
	require.NoError(t, err)
	assert.Equal(t, "Path: "+path+", preserve timestamp: False", lines(out)[0])
}

func TestClean_Silent(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	out, err := run(t, NewRootCmd(), "-s", path, filepath.Join(dir, "missing.ipynb"))
	require.NoError(t, err)
	assert.Empty(t, out)

	nb, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Nil(t, nb.Cells[0].ExecutionCount)
}

func TestClean_DryRun(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	out, err := run(t, NewRootCmd(), "--dry-run", path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cleaned: " + path}, lines(out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dirtyNB, string(data))
}

func TestClean_MissingPath(t *testing.T) {
	dir := workdir(t)
	missing := filepath.Join(dir, "missing.ipynb")

	out, err := run(t, NewRootCmd(), missing)
	require.NoError(t, err)
	assert.Equal(t, []string{missing + " not exists!"}, lines(out))
}

func TestClean_MissingPathWithJSON(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)
	missing := filepath.Join(dir, "missing.ipynb")

	stdout, stderr, err := runWithStderr(t, NewRootCmd(), "--format", "json", missing, path)
	require.NoError(t, err)

	var result batch.CleanResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), "stdout must be a single JSON document")
	assert.Equal(t, []string{path}, result.Cleaned)
	assert.Contains(t, stderr, missing+" not exists!")
}

func TestClean_SilentLogsFailures(t *testing.T) {
	dir := workdir(t)
	bad := writeNB(t, dir, "bad.ipynb", "{}")

	stdout, stderr, err := runWithStderr(t, NewRootCmd(), "--silent", bad)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "notebooks failed to clean")
	assert.NotContains(t, stderr, "level=WARN")
}

func TestClean_DebugLogsSettingsFiles(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", cleanNB)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"),
		[]byte("[tool.nbmetaclean]
clear_outputs = true
"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".nbmetaclean.yaml"), []byte("concurrency: 2\n"), 0o644))

	_, stderr, err := runWithStderr(t, NewRootCmd(), "--debug", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "loaded pyproject settings")
	assert.Contains(t, stderr, "using config file")

	_, stderr, err = runWithStderr(t, NewRootCmd(), path)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "loaded pyproject settings")
}

func TestClean_InvalidNotebook(t *testing.T) {
	dir := workdir(t)
	bad := writeNB(t, dir, "bad.ipynb", "{}")

	out, err := run(t, NewRootCmd(), bad)
	require.ErrorIs(t, err, ErrCheckFailed)
	got := lines(out)
	require.Len(t, got, 2)
	assert.Equal(t, "with errors: 1", got[0])
	assert.Contains(t, got[1], bad)
}

func TestClean_ClearOutputsAndMasks(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	_, err := run(t, NewRootCmd(),
		"--clear_outputs",
		"--nb_metadata_preserve_mask", "kernelspec.name",
		"--cell-metadata-preserve-mask", "scrolled",
		path)
	require.NoError(t, err)

	nb, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Empty(t, nb.Cells[0].Outputs)
	assert.Equal(t, notebook.Metadata{"scrolled": true}, nb.Cells[0].Metadata)
	assert.Equal(t, map[string]any{"name": "python3"}, nb.Metadata["kernelspec"])
	assert.Contains(t, nb.Metadata, "language_info", "default masks merged")
}

func TestClean_DontMergeMasks(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	_, err := run(t, NewRootCmd(),
		"--dont-merge-masks",
		"--nb-metadata-preserve-mask", "kernelspec.display_name",
		path)
	require.NoError(t, err)

	nb, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, notebook.Metadata{
		"kernelspec": map[string]any{"display_name": "Python 3"},
	}, nb.Metadata)
}

func TestClean_InvalidMask(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	_, err := run(t, NewRootCmd(), "--nb-metadata-preserve-mask", "a..b", path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCheckFailed)
}

func TestClean_PyprojectSettings(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"),
		[]byte("[tool.nbmetaclean]\nclear-outputs = true\ndont_clear_execution_count = true\n"), 0o644))

	_, err := run(t, NewRootCmd(), path)
	require.NoError(t, err)

	nb, err := notebook.Read(path)
	require.NoError(t, err)
	assert.Empty(t, nb.Cells[0].Outputs)
	require.NotNil(t, nb.Cells[0].ExecutionCount)
	assert.Equal(t, 1, *nb.Cells[0].ExecutionCount)
}

func TestClean_EnvOverridesPyproject(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"),
		[]byte("[tool.nbmetaclean]\ndry_run = false\n"), 0o644))
	t.Setenv("NBMETACLEAN_DRY_RUN", "true")

	_, err := run(t, NewRootCmd(), path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, dirtyNB, string(data))
}

func TestClean_JSONFormat(t *testing.T) {
	dir := workdir(t)
	dirty := writeNB(t, dir, "a.ipynb", dirtyNB)
	writeNB(t, dir, "b.ipynb", cleanNB)

	out, err := run(t, NewRootCmd(), "--format", "json", dir)
	require.NoError(t, err)

	var result batch.CleanResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, []string{dirty}, result.Cleaned)
	assert.Empty(t, result.Failed)
}

func TestClean_VersionFlag(t *testing.T) {
	workdir(t)
	out, err := run(t, NewRootCmd(), "-v")
	require.NoError(t, err)
	assert.Equal(t, version.Line("nbmetaclean")+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	workdir(t)
	out, err := run(t, NewRootCmd(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Full("nbmetaclean")+"\n", out)

	out, err = run(t, NewRootCmd(), "version", "--format", "json")
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}

func TestCheck_NoChecksSelected(t *testing.T) {
	dir := workdir(t)
	writeNB(t, dir, "nb.ipynb", cleanNB)

	out, err := run(t, NewCheckRootCmd(), dir)
	require.ErrorIs(t, err, errNoChecks)
	assert.Equal(t, noChecksMessage+"\n", out)
}

func TestCheck_ExecutionCount(t *testing.T) {
	dir := workdir(t)
	gap := writeNB(t, dir, "gap.ipynb", gapNB)
	writeNB(t, dir, "ok.ipynb", dirtyNB)

	out, err := run(t, NewCheckRootCmd(), "--ec", dir)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Equal(t, []string{
		"1 notebooks with wrong execution_count:",
		"- " + gap,
	}, lines(out))

	out, err = run(t, NewCheckRootCmd(), "--ec", "--not_strict", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheck_NotExecuted(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", cleanNB)

	_, err := run(t, NewCheckRootCmd(), "--ec", path)
	require.ErrorIs(t, err, ErrCheckFailed)

	_, err = run(t, NewCheckRootCmd(), "--ec", "--no-exec", path)
	require.NoError(t, err)
}

func TestCheck_ErrorsAndWarnings(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	out, err := run(t, NewCheckRootCmd(), "-V", "--err", "--warn", path)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Equal(t, []string{
		"Checking 1 notebooks:",
		"1 notebooks with errors in outputs:",
		"- " + path,
		"1 notebooks with warnings in outputs:",
		"- " + path,
	}, lines(out))
}

func TestCheck_ReadError(t *testing.T) {
	dir := workdir(t)
	bad := writeNB(t, dir, "bad.ipynb", "not json")

	out, err := run(t, NewCheckRootCmd(), "--err", bad)
	require.ErrorIs(t, err, ErrCheckFailed)
	got := lines(out)
	require.Len(t, got, 2)
	assert.Equal(t, "1 notebooks with read error:", got[0])
	assert.Contains(t, got[1], bad)
}

func TestCheck_MissingPathWithYAML(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)
	missing := filepath.Join(dir, "missing")

	stdout, stderr, err := runWithStderr(t, NewCheckRootCmd(), "--ec", "--format", "yaml", missing, path)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "not exists!")
	assert.Contains(t, stdout, "checked: 1")
	assert.Contains(t, stderr, missing+" not exists!")
}

func TestCheck_Subcommand(t *testing.T) {
	dir := workdir(t)
	path := writeNB(t, dir, "nb.ipynb", dirtyNB)

	out, err := run(t, NewRootCmd(), "check", "--ec", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, NewRootCmd(), "check", "--err", "--format", "yaml", path)
	require.ErrorIs(t, err, ErrCheckFailed)
	assert.Contains(t, out, "with_errors:")
	assert.Contains(t, out, "- "+path)
}

func TestCheck_VersionFlag(t *testing.T) {
	workdir(t)
	out, err := run(t, NewCheckRootCmd(), "--version")
	require.NoError(t, err)
	assert.Equal(t, version.Line("nbcheck")+"\n", out)
}

func TestCleanReport_TextLines(t *testing.T) {
	r := cleanReport{
		result: &batch.CleanResult{
			Checked: 3,
			Cleaned: []string{"a.ipynb"},
			Failed:  []batch.FileError{{Path: "c.ipynb", Message: "c.ipynb: invalid notebook"}},
		},
		paths:             []string{"a.ipynb", "dir"},
		verbose:           true,
		preserveTimestamp: true,
	}
	assert.Equal(t, []string{
		"Path: a.ipynb, dir, preserve timestamp: True",
		"checked: 3 notebooks",
		"cleaned: a.ipynb",
		"with errors: 1",
		"- c.ipynb: invalid notebook",
	}, r.TextLines())
}
