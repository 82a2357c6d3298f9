package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/you/chainguard/domain"
)

// LogAuditor implements domain.AuditLogger on a standard logger, one
// EVENT: key=value line per event.
type LogAuditor struct {
	logger *log.Logger
}

// NewLogAuditor creates an auditor writing to logger, or the default logger
func NewLogAuditor(logger *log.Logger) *LogAuditor {
	if logger == nil {
		logger = log.Default()
	}
	return &LogAuditor{logger: logger}
}

// LogEvent implements domain.AuditLogger
func (a *LogAuditor) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if event == nil {
		return fmt.Errorf("nil audit event")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: success=%t", event.EventType, event.Success)
	if event.UserID != "" {
		fmt.Fprintf(&b, " user_id=%s", event.UserID)
	}
	if event.Email != "" {
		fmt.Fprintf(&b, " email=%s", event.Email)
	}
	if event.ErrorMsg != "" {
		fmt.Fprintf(&b, " error=%q", event.ErrorMsg)
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, event.Metadata[k])
	}
	fmt.Fprintf(&b, " timestamp=%s", event.Timestamp.Format(time.RFC3339))

	a.logger.Println(b.String())
	return nil
}

var _ domain.AuditLogger = (*LogAuditor)(nil)
