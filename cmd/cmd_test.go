package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

func TestApplySets(t *testing.T) {
	tests := []struct {
		name    string
		sets    []string
		want    design.Record
		wantErr bool
	}{
		{"empty", nil, design.Record{}, false},
		{"pairs", []string{"NAME=Amina", " CLASS =4 East"}, design.Record{"NAME": "Amina", "CLASS": "4 East"}, false},
		{"value with equals", []string{"NOTE=a=b"}, design.Record{"NOTE": "a=b"}, false},
		{"missing equals", []string{"NAME"}, nil, true},
		{"empty key", []string{"=x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := design.Record{}
			err := applySets(rec, tt.sets)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rec) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, rec)
			}
			for k, v := range tt.want {
				if rec[k] != v {
					t.Errorf("%s: expected %v, got %v", k, v, rec[k])
				}
			}
		})
	}
}

func TestReadRecord(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		return path
	}

	rec, err := readRecord(write("rec.json", `{"NAME":"Amina","YEAR":2025}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rec["YEAR"].(json.Number); !ok {
		t.Errorf("expected json.Number, got %T", rec["YEAR"])
	}

	for _, path := range []string{"", write("null.json", "null")} {
		rec, err := readRecord(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec == nil {
			t.Errorf("expected an empty record for %q", path)
		}
	}

	if _, err := readRecord(write("bad.json", "{")); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestResolveServeHostPort(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "serve"}
		c.Flags().Int("port", 8080, "")
		c.Flags().String("host", "0.0.0.0", "")
		return c
	}
	cfg := &config.Config{Web: config.WebConfig{Port: 9000, Host: "127.0.0.1"}}

	c := newCmd()
	if port, host := resolveServeHostPort(c, cfg); port != 9000 || host != "127.0.0.1" {
		t.Errorf("expected config values, got %s:%d", host, port)
	}

	c = newCmd()
	if err := c.Flags().Set("port", "7000"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if port, host := resolveServeHostPort(c, cfg); port != 7000 || host != "127.0.0.1" {
		t.Errorf("expected flag port with config host, got %s:%d", host, port)
	}
}

func TestRequireString(t *testing.T) {
	c := &cobra.Command{Use: "export"}
	c.Flags().String("batch", "", "")

	if _, err := requireString(c, "batch"); err == nil || err.Error() != "--batch is required" {
		t.Errorf("expected required error, got %v", err)
	}
	if err := c.Flags().Set("batch", "  form1.json "); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if got, err := requireString(c, "batch"); err != nil || got != "form1.json" {
		t.Errorf("expected trimmed value, got %q, %v", got, err)
	}
}

func TestCardAdjustments(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "card"}
		c.Flags().Float64("zoom", 1, "")
		c.Flags().Float64("offset-x", 0, "")
		c.Flags().Float64("offset-y", 0, "")
		return c
	}
	rec := design.Record{design.AdjustmentsKey: map[string]any{"zoom": 1.5, "x": 12.0, "y": -4.0}}

	tests := []struct {
		name string
		set  map[string]string
		want design.Adjustments
	}{
		{"record only", nil, design.Adjustments{Zoom: 1.5, OffsetX: 12, OffsetY: -4}},
		{"zoom flag keeps record offsets", map[string]string{"zoom": "2"}, design.Adjustments{Zoom: 2, OffsetX: 12, OffsetY: -4}},
		{"offset flag keeps record zoom", map[string]string{"offset-y": "7"}, design.Adjustments{Zoom: 1.5, OffsetX: 12, OffsetY: 7}},
		{"invalid zoom falls back", map[string]string{"zoom": "0"}, design.Adjustments{Zoom: 1, OffsetX: 12, OffsetY: -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCmd()
			for name, value := range tt.set {
				if err := c.Flags().Set(name, value); err != nil {
					t.Fatalf("failed to set flag: %v", err)
				}
			}
			if got := cardAdjustments(c, rec); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
