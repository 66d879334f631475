package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrLogDirNotFound  = errors.New("log directory not found")
	ErrLogFileNotFound = errors.New("no log file found")
)

type Query struct {
	// Date is "today", "yesterday", YYYY-MM-DD or empty for today.
	Date string
	// Search keeps lines containing the text, case-insensitively.
	Search string
	// Level keeps lines logged at this level (syslog or slog name).
	Level string
	// Limit keeps only the last N matching lines when positive.
	Limit int
}

type Result struct {
	File    string
	Date    string
	Lines   int
	Content string
}

type Reader struct {
	dir string
	now func() time.Time
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir, now: time.Now}
}

// ResolveDate turns the Query date keywords into a YYYY-MM-DD string.
func (r *Reader) ResolveDate(date string) string {
	switch strings.ToLower(strings.TrimSpace(date)) {
	case "", "today":
		return r.now().Format(fileDateLayout)
	case "yesterday":
		return r.now().AddDate(0, 0, -1).Format(fileDateLayout)
	default:
		return strings.TrimSpace(date)
	}
}

func (r *Reader) Read(q Query) (*Result, error) {
	info, err := os.Stat(r.dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrLogDirNotFound, r.dir)
	}

	date := r.ResolveDate(q.Date)
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read log dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), date) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w for date: %s", ErrLogFileNotFound, date)
	}
	sort.Strings(names)

	path := filepath.Join(r.dir, names[0])
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := filterLines(strings.Split(strings.TrimRight(string(raw), "\n"), "\n"), q)
	return &Result{
		File:    path,
		Date:    date,
		Lines:   len(lines),
		Content: strings.Join(lines, "\n"),
	}, nil
}

func filterLines(lines []string, q Query) []string {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	var levelTag string
	if strings.TrimSpace(q.Level) != "" {
		levelTag = "level=" + ParseLevel(q.Level).String()
	}

	out := lines[:0:0]
	for _, line := range lines {
		if line == "" {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(line), search) {
			continue
		}
		if levelTag != "" && !strings.Contains(line, levelTag) {
			continue
		}
		out = append(out, line)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}
