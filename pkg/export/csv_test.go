package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/storefront-export/pkg/merge"
	"github.com/Sternrassler/storefront-export/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []merge.Row {
	return []merge.Row{
		{
			ID: 1, Name: "Oak Desk, large", URL: "/oak-desk/", SKU: "OAK-1", Type: "product",
			CustomFields:     metadata.Record{"builder_type": "Corner"},
			TemplateFileName: "desk.html",
		},
		{
			ID: 2, Name: "Pine Desk", URL: "/pine-desk/", Type: "product",
			CustomFields:     metadata.Sentinel(),
			TemplateFileName: merge.NoTemplate,
		},
		{
			ID: 9, Name: `About "us"`, URL: "/about/", Type: "page",
			TemplateFileName: merge.NoTemplate,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	want := "id,name,url,sku,type,custom_fields,template_file_name\r\n" +
		`1,"Oak Desk, large",/oak-desk/,OAK-1,product,{'builder_type': 'Corner'},desk.html` + "\r\n" +
		`2,Pine Desk,/pine-desk/,,product,{'builder_type': 'BUILDER NOT FOUND'},No template found` + "\r\n" +
		`9,"About ""us""",/about/,,page,No custom field,No template found` + "\r\n"

	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,name,url,sku,type,custom_fields,template_file_name\r\n", buf.String())
}

func TestWriteFile_Truncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("stale\n"), 100), 0o644))

	got, err := WriteFile(dir, sampleRows()[:1])
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Equal(t, 2, bytes.Count(data, []byte("\r\n")))
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")), "no bare LF line endings")
}

func TestWriteFile_MissingDir(t *testing.T) {
	_, err := WriteFile(filepath.Join(t.TempDir(), "nope"), sampleRows())
	assert.Error(t, err)
}
