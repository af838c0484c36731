package ledger

import (
	"log"
	"time"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)  {}
func (n *NoopMetricsCollector) RecordPosting(string, string, int64)            {}
func (n *NoopMetricsCollector) RecordBalanceChange(string, uint, int64, int64) {}
func (n *NoopMetricsCollector) RecordError(string, string)                     {}

// LogMetricsCollector writes metrics to the standard logger.
type LogMetricsCollector struct{}

func (l *LogMetricsCollector) RecordOperationDuration(operation string, d time.Duration) {
	if d > 500*time.Millisecond {
		log.Printf("⚠️ Slow ledger operation %s: %s", operation, d)
	}
}

func (l *LogMetricsCollector) RecordPosting(accountType, entryType string, amount int64) {
	log.Printf("Ledger posting: %s %s %d", accountType, entryType, amount)
}

func (l *LogMetricsCollector) RecordBalanceChange(accountType string, ownerID uint, oldBalance, newBalance int64) {
	if newBalance < 0 && oldBalance >= 0 {
		log.Printf("⚠️ Ledger account %s:%d went negative: %d -> %d", accountType, ownerID, oldBalance, newBalance)
	}
}

func (l *LogMetricsCollector) RecordError(operation, errorType string) {
	log.Printf("❌ Ledger %s failed: %s", operation, errorType)
}
