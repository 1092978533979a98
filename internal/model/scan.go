package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScannedPosition pairs a decoded position with its computed metrics.
// Metrics is nil when the metrics computation was skipped for this position
// (the failure is then recorded in the result's error list).
type ScannedPosition struct {
	Position Position         `json:"position"`
	Metrics  *PositionMetrics `json:"metrics,omitempty"`
}

// ProtocolResult is the outcome of scanning one protocol for one wallet.
// A fully failed protocol carries Confidence 0 and its error, never an
// aborted scan.
type ProtocolResult struct {
	Protocol       Protocol          `json:"protocol"`
	Positions      []ScannedPosition `json:"positions"`
	Pools          []Pool            `json:"pools"`
	TotalValue     decimal.Decimal   `json:"total_value"`
	TotalPositions int               `json:"total_positions"`
	Confidence     float64           `json:"confidence"`
	Errors         []ScanError       `json:"errors,omitempty"`
}

// WalletReport merges all protocol results: positions, pools, and errors are
// concatenated, values summed, confidences multiplied. Confidence is
// monotonically non-increasing as failures accumulate.
type WalletReport struct {
	ScanID         string            `json:"scan_id"`
	Wallet         string            `json:"wallet"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Protocols      []Protocol        `json:"protocols"`
	Positions      []ScannedPosition `json:"positions"`
	Pools          []Pool            `json:"pools"`
	TotalValue     decimal.Decimal   `json:"total_value"`
	TotalPositions int               `json:"total_positions"`
	Confidence     float64           `json:"confidence"`
	Errors         []ScanError       `json:"errors,omitempty"`
}

// Merge folds a protocol result into the report.
func (r *WalletReport) Merge(result ProtocolResult) {
	r.Protocols = append(r.Protocols, result.Protocol)
	r.Positions = append(r.Positions, result.Positions...)
	r.Pools = append(r.Pools, result.Pools...)
	r.TotalValue = r.TotalValue.Add(result.TotalValue)
	r.TotalPositions += result.TotalPositions
	r.Confidence *= result.Confidence
	r.Errors = append(r.Errors, result.Errors...)
}
