package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/hatchery-backend/pkg/logger"
)

func traceOnce(t *testing.T, slow time.Duration, took time.Duration, err error) string {
	t.Helper()
	buf := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Format: "json", Output: buf}), slow)
	ql.Trace(context.Background(), time.Now().Add(-took), func() (string, int64) {
		return "SELECT 1", 1
	}, err)
	return buf.String()
}

func TestQueryLoggerReportsSlowAndFailedStatements(t *testing.T) {
	if out := traceOnce(t, 100*time.Millisecond, 10*time.Millisecond, nil); out != "" {
		t.Fatalf("fast query should be silent, got %s", out)
	}
	if out := traceOnce(t, 100*time.Millisecond, 200*time.Millisecond, nil); !strings.Contains(out, "slow query") {
		t.Fatalf("expected slow query entry, got %s", out)
	}
	if out := traceOnce(t, 0, time.Hour, nil); out != "" {
		t.Fatalf("zero threshold disables slow logging, got %s", out)
	}
	out := traceOnce(t, 0, time.Millisecond, errors.New("relation does not exist"))
	if !strings.Contains(out, "query failed") || !strings.Contains(out, `"sql":"SELECT 1"`) {
		t.Fatalf("expected failed query entry, got %s", out)
	}
	if out := traceOnce(t, 0, time.Millisecond, gorm.ErrRecordNotFound); out != "" {
		t.Fatalf("record not found should be silent, got %s", out)
	}
}

func TestQueryLoggerSilentMode(t *testing.T) {
	buf := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{Output: buf, Format: "json"}), time.Nanosecond).LogMode(gormlogger.Silent)
	ql.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should drop entries, got %s", buf.String())
	}
	if newQueryLogger(nil, 0) != gormlogger.Discard {
		t.Fatal("nil logger should discard")
	}
}
