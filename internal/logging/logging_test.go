package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InfoByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug().Msg("[test] hidden")
	logger.Info().Str("city", "Cairo").Msg("[test] shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "city=Cairo")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug().Msg("[test] detail")

	assert.Contains(t, buf.String(), "detail")
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNew_ReplacesGlobalLogger(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	New(&buf, false)

	log.Info().Msg("[test] global")
	assert.Contains(t, buf.String(), "global")
}

func TestNew_NoColorForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Warn().Msg("plain")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestIsTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "log"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	assert.False(t, isTerminal(f), "regular file")
	assert.False(t, isTerminal(&bytes.Buffer{}), "buffer")
}
