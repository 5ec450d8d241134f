package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestWriteTextfile_DefaultGatherer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.prom")
	if err := WriteTextfile(path, nil); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	// the default registry always carries the Go collector
	if !strings.Contains(string(data), "go_goroutines") {
		t.Errorf("Expected default registry metrics, got %q", data)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_export_rows",
		Help: "Rows written by the last export run",
	})
	reg.MustRegister(rows)
	rows.Set(4)

	path := filepath.Join(t.TempDir(), "export.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(data), "storefront_export_rows 4") {
		t.Errorf("Expected gauge sample in output, got %q", data)
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "export.prom")
	if err := WriteTextfile(path, prometheus.NewRegistry()); err == nil {
		t.Error("Expected error for missing directory")
	}
}
