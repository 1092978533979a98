package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"positionscope/internal/model"
)

// JSONStorage writes one report as an indented JSON document, replacing any
// previous content. An empty path writes to the given fallback writer.
type JSONStorage struct {
	path     string
	fallback io.Writer
}

func NewJSONStorage(path string, fallback io.Writer) *JSONStorage {
	if fallback == nil {
		fallback = os.Stdout
	}
	return &JSONStorage{path: path, fallback: fallback}
}

// PutReport writes the report.
func (s *JSONStorage) PutReport(report *model.WalletReport) error {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	body = append(body, '\n')

	if s.path == "" {
		_, err := s.fallback.Write(body)
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
