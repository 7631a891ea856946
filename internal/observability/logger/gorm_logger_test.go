package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("SELECT * FROM products"))
	assert.Equal(t, "UPDATE", operationFromSQL("  update products set stock = stock - 1"))
	assert.Equal(t, "INSERT", operationFromSQL("WITH x AS (SELECT 1) INSERT INTO t VALUES (1)"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLoggerTraceLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(GormLoggerConfig{Level: gormlogger.Warn, SlowThreshold: time.Millisecond})

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM products WHERE id IN (1,2) FOR UPDATE", 2
	}, nil)
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "UPDATE products SET stock = stock - 1", 0
	}, errors.New("boom"))

	entries := logs.FilterMessage("gorm.query").All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, true, entries[0].ContextMap()["slow"])
		assert.Equal(t, true, entries[0].ContextMap()["row_lock"])
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	}
}

func TestGormLoggerSilent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(DefaultGormLoggerConfig()).LogMode(gormlogger.Silent)
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("ignored"))

	assert.Zero(t, logs.Len())
}

func TestOperationFromReadOnlyCTE(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("WITH today AS (SELECT * FROM transactions) SELECT count(*) FROM today"))
	assert.Equal(t, "DELETE", operationFromSQL("with s as (select id from sessions) delete from sessions"))
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	l := NewGormLogger(DefaultGormLoggerConfig())
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM transactions WHERE idempotency_key = ?", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Zero(t, logs.Len())
}
