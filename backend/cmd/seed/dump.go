package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"objectgraph/backend/internal/objectgraph"
)

type dumpFormat string

const (
	formatJSON dumpFormat = "json"
	formatYAML dumpFormat = "yaml"
)

// formatFor picks the dump format from the file extension
func formatFor(path string) (dumpFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unsupported dump extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

func writeSnapshot(w io.Writer, format dumpFormat, snap objectgraph.Snapshot) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown dump format %q", format)
}

func writeSnapshotFile(path string, format dumpFormat, snap objectgraph.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeSnapshot(f, format, snap); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}
