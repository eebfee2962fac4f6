package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"error": Error,
		"E":     Error,
		"WARN":  Warn,
		"info":  Info,
		"D":     Debug,
		"-2":    Error,
		"1":     Debug,
	} {
		level, err := parseLevel(s)
		assert.NoError(t, err, "parseLevel(%q)", s)
		assert.Equal(t, want, level, "parseLevel(%q)", s)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)

	_, err = parseLevel("99")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "Error", Error.String())
	assert.Equal(t, "Warn", Warn.String())
	assert.Equal(t, "Info", Info.String())
	assert.Equal(t, "Debug", Debug.String())
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := DefaultLogger.WithTag("test")
	log.SetDestination(&buf)
	log.Level = Info

	log.Debug("too verbose")
	assert.Empty(t, buf.String())

	log.Info("frame read failed")
	out := buf.String()
	assert.Contains(t, out, "I/test")
	assert.Contains(t, out, "frame read failed")
}

func TestDetermineLevelFallsBack(t *testing.T) {
	assert.Equal(t, Warn, determineLevel("no-such-tag", Warn))
}
