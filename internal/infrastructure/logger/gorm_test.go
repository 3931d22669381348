package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, slow time.Duration) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, slow), recorded
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")

	t.Run("error is logged with request id", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Warn, 0)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), errors.New("syntax error"))

		logs := recorded.FilterMessage("SQL error").All()
		if assert.Len(t, logs, 1) {
			assert.Equal(t, "req-7", logs[0].ContextMap()["request_id"])
			assert.Equal(t, "SELECT 1", logs[0].ContextMap()["sql"])
		}
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Warn, 0)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT * FROM users", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("slow query warns", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Warn, time.Millisecond)
		gl.Trace(ctx, time.Now().Add(-50*time.Millisecond), sqlFn("SELECT * FROM products", 3), nil)
		assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())
	})

	t.Run("fast query only at info", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Warn, time.Second)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Equal(t, 0, recorded.Len())

		gl.LogMode(gormlogger.Info).Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Equal(t, 1, recorded.FilterMessage("SQL").Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gl, recorded := newObservedGorm(gormlogger.Silent, 0)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		gl.Error(ctx, "ignored %d", 1)
		assert.Equal(t, 0, recorded.Len())
	})
}

func TestGormLogger_Printf(t *testing.T) {
	gl, recorded := newObservedGorm(gormlogger.Info, 0)
	ctx := context.Background()
	gl.Info(ctx, "migrated %d tables", 9)
	gl.Warn(ctx, "warn %s", "x")
	gl.Error(ctx, "error %s", "y")

	assert.Equal(t, 1, recorded.FilterMessage("migrated 9 tables").Len())
	assert.Equal(t, 3, recorded.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
