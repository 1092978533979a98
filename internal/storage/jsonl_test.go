package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"positionscope/internal/model"
)

func testReport(scanID string) *model.WalletReport {
	return &model.WalletReport{
		ScanID:     scanID,
		Wallet:     "wallet",
		Confidence: 1,
	}
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutReport(testReport("a")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := sink.PutReport(testReport("b")); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var report model.WalletReport
	if err := json.Unmarshal([]byte(lines[1]), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.ScanID != "b" {
		t.Fatalf("scan id: %s", report.ScanID)
	}
}

func TestJSONStorageFallbackWriter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONStorage("", &buf)

	if err := sink.PutReport(testReport("a")); err != nil {
		t.Fatalf("put: %v", err)
	}
	var report model.WalletReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.ScanID != "a" {
		t.Fatalf("scan id: %s", report.ScanID)
	}
}
