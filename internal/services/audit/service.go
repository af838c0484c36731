package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/storage"

	"github.com/gosimple/slug"
)

var ErrArchiveDisabled = errors.New("audit archive storage is not configured")

var csvHeader = []string{
	"id", "created_at", "actor_id", "on_behalf_of", "action",
	"entity_type", "entity_id", "ip_address", "details",
}

type Service struct {
	store    repositories.Store
	uploader storage.FileUploader
	now      func() time.Time
}

// NewService builds the audit service. uploader may be nil, which disables Archive.
func NewService(store repositories.Store, uploader storage.FileUploader) *Service {
	return &Service{store: store, uploader: uploader, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) List(ctx context.Context, filter repositories.AuditFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.AuditLogs().List(ctx, filter, limit, offset)
}

// Export writes every entry matching filter as CSV and returns the row count.
func (s *Service) Export(ctx context.Context, filter repositories.AuditFilter, w io.Writer) (int, error) {
	entries, err := s.Entries(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Entries returns every entry matching filter, oldest first.
func (s *Service) Entries(ctx context.Context, filter repositories.AuditFilter) ([]models.AuditLogEntry, error) {
	entries, _, err := s.store.AuditLogs().List(ctx, filter, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	return entries, nil
}

// WriteCSV writes the header and one row per entry.
func WriteCSV(w io.Writer, entries []models.AuditLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range entries {
		row, err := csvRow(&entries[i])
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

type ArchiveResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
}

// Archive exports the filtered log to object storage and records the export.
func (s *Service) Archive(ctx context.Context, actor Actor, filter repositories.AuditFilter) (*ArchiveResult, error) {
	if s.uploader == nil {
		return nil, ErrArchiveDisabled
	}

	var buf bytes.Buffer
	rows, err := s.Export(ctx, filter, &buf)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := ArchiveKey(filter, now)
	uploaded, err := s.uploader.Upload(ctx, key, "text/csv", &buf)
	if err != nil {
		return nil, err
	}

	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		return Record(ctx, tx, actor, Entry{
			Action:     models.AuditExport,
			EntityType: models.EntityAuditLog,
			Details: map[string]interface{}{
				"key":         uploaded.Key,
				"rows":        rows,
				"actions":     filter.Actions,
				"entity_type": filter.EntityType,
			},
		}, now)
	})
	if err != nil {
		// An archive without its AUDIT_EXPORT record is removed.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			log.Printf("⚠️ Failed to remove orphaned audit archive %s: %v", key, delErr)
		}
		return nil, err
	}

	log.Printf("✅ Audit log archived to %s (%d rows)", uploaded.Location, rows)
	return &ArchiveResult{Key: uploaded.Key, Location: uploaded.Location, Rows: rows}, nil
}

// ArchiveKey names an archive object after its filter and creation time.
func ArchiveKey(filter repositories.AuditFilter, at time.Time) string {
	parts := []string{"audit-log"}
	parts = append(parts, filter.Actions...)
	if filter.EntityType != "" {
		parts = append(parts, filter.EntityType)
	}
	parts = append(parts, at.UTC().Format("20060102-150405"))
	return fmt.Sprintf("audit/%s/%s.csv", at.UTC().Format("2006/01"), slug.Make(strings.Join(parts, " ")))
}

func csvRow(e *models.AuditLogEntry) ([]string, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit details: %w", err)
	}
	onBehalfOf := ""
	if e.OnBehalfOf != nil {
		onBehalfOf = strconv.FormatUint(uint64(*e.OnBehalfOf), 10)
	}
	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		e.CreatedAt.UTC().Format(time.RFC3339),
		strconv.FormatUint(uint64(e.ActorID), 10),
		onBehalfOf,
		e.Action,
		e.EntityType,
		strconv.FormatUint(uint64(e.EntityID), 10),
		e.IPAddress,
		string(details),
	}, nil
}
