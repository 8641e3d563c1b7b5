package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskParams(t *testing.T) {
	got := MaskParams(map[string]string{"username": "bob", "password": "hunter2", "NewPassword": "x"})
	assert.Equal(t, map[string]string{"username": "bob", "password": Mask, "NewPassword": Mask}, got)
	assert.Nil(t, MaskParams(nil))
}

func TestMaskText(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		params map[string]string
		want   string
	}{
		{"key value", "login password=hunter2 ok", nil, "login password=" + Mask + " ok"},
		{"json", `{"password": "hunter2"}`, nil, `{"password": "` + Mask + `"}`},
		{"flag", "tool --password hunter2", nil, "tool --password " + Mask},
		{"literal value", "net user bob hunter2 /add", map[string]string{"password": "hunter2"}, "net user bob " + Mask + " /add"},
		{"plain", "disk ok", nil, "disk ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskText(tt.in, tt.params))
		})
	}
}

func TestRecord_ZapAndSQLite(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	l.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	params := map[string]string{"username": "bob", "password": "hunter2"}
	id, err := l.Info(ctx, "admin", "users.add", params, "net user bob hunter2 /add: done")
	require.NoError(t, err)
	_, err = l.Error(ctx, "op", "network.ping", map[string]string{"host": "10.0.0.1"}, "ERROR: timeout")
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.NotContains(t, first.Message, "hunter2")
	assert.Equal(t, id, first.ContextMap()["id"])

	entries, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "network.ping", entries[0].Intent)
	assert.Equal(t, "ERROR", entries[0].Level)

	added := entries[1]
	assert.Equal(t, id, added.CorrelationID)
	assert.Equal(t, "admin", added.Username)
	assert.Equal(t, Mask, added.Params["password"])
	assert.Equal(t, "bob", added.Params["username"])
	assert.NotContains(t, added.Result, "hunter2")
	assert.NotContains(t, added.Message, "hunter2")
	assert.True(t, added.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	limited, err := l.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecord_WithoutDatabase(t *testing.T) {
	l := New(nil)
	id, err := l.Info(context.Background(), "admin", "system.info", nil, "ok")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := l.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
