package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const fileDateLayout = "2006-01-02"

// DailyFile writes to dir/YYYY-MM-DD.log and switches files when the local
// date changes. Files past the retention window are removed on each switch.
type DailyFile struct {
	dir           string
	retentionDays int
	now           func() time.Time

	mu      sync.Mutex
	current string
	file    *os.File
}

func NewDailyFile(dir string, retentionDays int) (*DailyFile, error) {
	return newDailyFile(dir, retentionDays, time.Now)
}

func newDailyFile(dir string, retentionDays int, now func() time.Time) (*DailyFile, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("log directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &DailyFile{dir: dir, retentionDays: retentionDays, now: now}, nil
}

func (d *DailyFile) Dir() string { return d.dir }

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	date := d.now().Format(fileDateLayout)
	if d.file == nil || date != d.current {
		if err := d.rotate(date); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *DailyFile) rotate(date string) error {
	if d.file != nil {
		_ = d.file.Close()
		d.file = nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, date+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	d.file = f
	d.current = date
	d.prune()
	return nil
}

// prune removes dated log files older than the retention window. Files
// that do not follow the naming scheme are left alone.
func (d *DailyFile) prune() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	today, err := time.ParseInLocation(fileDateLayout, d.current, time.Local)
	if err != nil {
		return
	}
	cutoff := today.AddDate(0, 0, -d.retentionDays)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		day, err := time.ParseInLocation(fileDateLayout, strings.TrimSuffix(name, ".log"), time.Local)
		if err != nil {
			continue
		}
		if !day.After(cutoff) {
			_ = os.Remove(filepath.Join(d.dir, name))
		}
	}
}
