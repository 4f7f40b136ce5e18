package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "reports.json")
	fs := NewFileStorage(FileConfig{Path: path})

	reports := []model.Report{
		{Description: "Estado del tiempo en GT.", Country: "GT", Weather: model.Rainy},
		{Description: "Pronóstico a corto plazo para MX.", Country: "MX", Weather: model.Sunny},
	}

	ctx := context.Background()
	require.NoError(t, fs.Store(ctx, reports[0]))
	require.NoError(t, fs.StoreBatch(ctx, reports[1:]))
	require.NoError(t, fs.Close())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, reports, loaded)
}

func TestWriteReports_PrettyPrintedUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.json")
	reports := []model.Report{
		{Description: "Condiciones meteorológicas para CL.", Country: "CL", Weather: model.Cloudy},
	}

	require.NoError(t, WriteReports(path, reports))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"description\""), "got %q", text)
	assert.Contains(t, text, "meteorológicas")
}

func TestWriteReports_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewFileStorage(FileConfig{Path: path}).Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
