package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"crypto-mcp/internal/domain"
)

// SnapshotStore writes each fetched candle series to its own JSON file.
type SnapshotStore struct {
	dir string
	now func() time.Time
}

func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir, now: time.Now}
}

func (s *SnapshotStore) Dir() string { return s.dir }

// FileName returns the snapshot name for symbol on exchange at t.
func FileName(t time.Time, symbol, exchange string) string {
	safe := strings.NewReplacer("/", "_", ":", "_", "-", "_").Replace(strings.ToUpper(symbol))
	return fmt.Sprintf("%s_%s_%s.json", t.Format("2006-01-02_150405"), safe, exchange)
}

func (s *SnapshotStore) Archive(ctx context.Context, exchange string, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	raw, err := json.MarshalIndent(candles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(s.dir, FileName(s.now(), candles[0].Symbol, exchange))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
