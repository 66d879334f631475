package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleLog = `time="2026-03-10 09:00:00" level=INFO msg="fetched prices" symbol=BTC/USDT
time="2026-03-10 09:00:01" level=WARN msg="No exchange specified, defaulting to binance"
time="2026-03-10 09:00:02" level=ERROR msg="candlesticks failed" err="binance: timeout"
time="2026-03-10 09:00:03" level=INFO msg="fetched order book" symbol=ETH/USDT
`

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2026-03-10.log"), []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	r := NewReader(dir)
	r.now = func() time.Time { return time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local) }
	return r
}

func TestReaderResolveDate(t *testing.T) {
	r := newTestReader(t)
	if got := r.ResolveDate("today"); got != "2026-03-11" {
		t.Fatalf("unexpected today: %s", got)
	}
	if got := r.ResolveDate(""); got != "2026-03-11" {
		t.Fatalf("unexpected empty date: %s", got)
	}
	if got := r.ResolveDate("yesterday"); got != "2026-03-10" {
		t.Fatalf("unexpected yesterday: %s", got)
	}
	if got := r.ResolveDate("2025-12-31"); got != "2025-12-31" {
		t.Fatalf("unexpected explicit date: %s", got)
	}
}

func TestReaderReadWholeFile(t *testing.T) {
	r := newTestReader(t)
	res, err := r.Read(Query{Date: "yesterday"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lines != 4 || !strings.Contains(res.Content, "fetched order book") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestReaderFilters(t *testing.T) {
	r := newTestReader(t)

	res, err := r.Read(Query{Date: "2026-03-10", Level: "error"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lines != 1 || !strings.Contains(res.Content, "candlesticks failed") {
		t.Fatalf("unexpected level filter result: %+v", res)
	}

	res, err = r.Read(Query{Date: "2026-03-10", Search: "EXCHANGE SPECIFIED"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lines != 1 {
		t.Fatalf("unexpected search result: %+v", res)
	}

	res, err = r.Read(Query{Date: "2026-03-10", Level: "info", Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Lines != 1 || !strings.Contains(res.Content, "ETH/USDT") {
		t.Fatalf("expected the last info line, got %+v", res)
	}
}

func TestReaderMissingFile(t *testing.T) {
	r := newTestReader(t)
	if _, err := r.Read(Query{Date: "today"}); !errors.Is(err, ErrLogFileNotFound) {
		t.Fatalf("expected ErrLogFileNotFound, got %v", err)
	}
}

func TestReaderMissingDir(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent"))
	if _, err := r.Read(Query{}); !errors.Is(err, ErrLogDirNotFound) {
		t.Fatalf("expected ErrLogDirNotFound, got %v", err)
	}
}
