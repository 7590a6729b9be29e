package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileProvider_CSV(t *testing.T) {
	path := writeFile(t, "orders.csv", "id,amount,currency\n1,10.5,USD\n2,20,EUR\n")
	p, err := NewFileProvider(Source{Type: "csv", Path: path})
	require.NoError(t, err)

	rows, err := p.Materialize(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0]["id"])
	assert.Equal(t, 10.5, rows[0]["amount"])
	assert.Equal(t, "USD", rows[0]["currency"])
	assert.Equal(t, 20, rows[1]["amount"])
}

func TestFileProvider_JSON(t *testing.T) {
	path := writeFile(t, "orders.json", `[{"id": 1, "amount": 10.5}, {"id": 2, "amount": 20}]`)
	p, err := NewFileProvider(Source{Type: "json", Path: path})
	require.NoError(t, err)

	rows, err := p.Materialize(context.Background(), "orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 10.5, rows[0]["amount"])
}

func TestFileProvider_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1}]`))
	}))
	defer server.Close()

	p, err := NewFileProvider(Source{Type: "json", Path: server.URL})
	require.NoError(t, err)
	rows, err := p.Materialize(context.Background(), "orders")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestNewFileProvider_Validation(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := NewFileProvider(Source{Type: "parquet", Path: "x"})
		assert.Error(t, err)
	})
	t.Run("missing path", func(t *testing.T) {
		_, err := NewFileProvider(Source{Type: "csv"})
		assert.Error(t, err)
	})
}

func TestCatalog(t *testing.T) {
	csvPath := writeFile(t, "orders.csv", "id\n1\n")
	catalogPath := writeFile(t, "catalog.yml", `
datasets:
  orders:
    type: csv
    path: `+csvPath+`
`)

	cat, err := Load(catalogPath)
	require.NoError(t, err)

	t.Run("materializes known datasets", func(t *testing.T) {
		rows, err := cat.Materialize(context.Background(), "orders")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("errors on unknown names", func(t *testing.T) {
		_, err := cat.Materialize(context.Background(), "customers")
		assert.Error(t, err)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})

	t.Run("empty catalog", func(t *testing.T) {
		path := writeFile(t, "catalog.yml", "datasets: {}")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad source", func(t *testing.T) {
		path := writeFile(t, "catalog.yml", `
datasets:
  orders:
    type: parquet
    path: x
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}
