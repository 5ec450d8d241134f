// Package export writes merged rows as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sternrassler/storefront-export/pkg/merge"
	"github.com/rs/zerolog/log"
)

// FileName is the name of the export file inside the output directory.
const FileName = "combined_products_and_pages.csv"

// Header is the first record of every export.
var Header = []string{"id", "name", "url", "sku", "type", "custom_fields", "template_file_name"}

// WriteCSV writes Header followed by one record per row. Lines end in CRLF.
func WriteCSV(w io.Writer, rows []merge.Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.ID),
			r.Name,
			r.URL,
			r.SKU,
			r.Type,
			r.CustomFieldsText(),
			r.TemplateFileName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s %d: %w", r.Type, r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile creates or truncates FileName in dir, writes rows to it and
// returns the file's path. dir must already exist.
func WriteFile(dir string, rows []merge.Row) (path string, err error) {
	path = filepath.Join(dir, FileName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close export file: %w", cerr)
		}
	}()

	if err := WriteCSV(f, rows); err != nil {
		return "", err
	}

	log.Debug().Str("path", path).Int("rows", len(rows)).Msg("Export file written")
	return path, nil
}
