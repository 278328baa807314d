package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gompdf/smartprint/internal/config"
)

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	require.NotNil(t, env)
	assert.False(t, env.start.IsZero())

	assert.Panics(t, func() { EnvFromContext(context.Background()) })
}

func TestUptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, env.Uptime(), 10*time.Millisecond)
}

func TestConverterUsesConfiguration(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	env.Log = zaptest.NewLogger(t)

	cfg, err := config.LoadConfiguration("")
	require.NoError(t, err)
	cfg.Document.Paper = "legal"
	cfg.Document.ParagraphSpacing = 4
	env.Cfg = cfg

	o := env.Converter().Options()
	assert.Equal(t, 1008.0, o.PageHeight)
	assert.Equal(t, 4.0, o.ParagraphSpacing)
	assert.Same(t, env.Log, o.Logger)
}

func TestStdLogRedirect(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	env.RestoreStdLog()

	env.Log = zaptest.NewLogger(t)
	env.RedirectStdLog()
	env.RestoreStdLog()
}
