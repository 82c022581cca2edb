package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/resizor-go/pkg/resizor/resizortest"
)

func runCLI(t *testing.T, ts *resizortest.TestServer, args ...string) (string, error) {
	t.Helper()
	cfg := ts.Config()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--host", cfg.Host,
		"--access-key", cfg.AccessKey,
		"--secret-key", cfg.SecretKey,
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixel.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 2, 2))))
	return path
}

func TestCLI_StoreListFindDelete(t *testing.T) {
	ts := resizortest.Start(t, resizortest.Options{AccessKey: "cli-key", SecretKey: "cli-secret"})

	out, err := runCLI(t, ts, "store", writePNG(t), "--id", "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "7"`)

	out, err = runCLI(t, ts, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "2x2")

	out, err = runCLI(t, ts, "list", "--json", "--param", "page=1")
	require.NoError(t, err)
	assert.Contains(t, out, `"mime_type": "image/png"`)

	out, err = runCLI(t, ts, "find", "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"width": 2`)

	out, err = runCLI(t, ts, "delete", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted image 7")

	_, err = runCLI(t, ts, "find", "7")
	assert.ErrorIs(t, err, errNotFound)

	_, err = runCLI(t, ts, "delete", "7")
	assert.ErrorContains(t, err, "status 404")
}

func TestCLI_MissingCredentials(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--host", "http://127.0.0.1:1", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"})
	assert.Error(t, root.Execute())
}

func TestParseParams(t *testing.T) {
	extra, err := parseParams([]string{"page=2", "q=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"page": "2", "q": "a=b"}, extra)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
}
