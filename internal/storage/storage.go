// Package storage persists wallet scan reports.
package storage

import "positionscope/internal/model"

// Sink defines a sink for scan reports.
type Sink interface {
	PutReport(report *model.WalletReport) error
}
