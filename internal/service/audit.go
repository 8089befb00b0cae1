package service

import (
	"context"
	"fmt"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/idx"
)

const defaultAuditPageSize = 50

// AuditService records and lists append-only audit entries.
type AuditService struct {
	Store store.Store
}

// Record appends one entry, filling in id and timestamp when absent.
func (s *AuditService) Record(ctx context.Context, entry domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = idx.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.Store.AuditLog().AppendAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first, plus whether more exist.
// The hasNext probe fetches one extra row beyond the page.
func (s *AuditService) List(ctx context.Context, filter store.AuditFilter) ([]domain.AuditEntry, bool, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditPageSize
	}
	probe := filter
	probe.Limit = filter.Limit + 1

	entries, err := s.Store.AuditLog().ListAuditEntries(ctx, probe)
	if err != nil {
		return nil, false, fmt.Errorf("list audit entries: %w", err)
	}

	hasNext := len(entries) > filter.Limit
	if hasNext {
		entries = entries[:filter.Limit]
	}
	return entries, hasNext, nil
}
