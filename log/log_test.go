package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests share the package-level logger so they do not run in parallel
func TestSubLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Infof(ExchangeSys, "%s: REST request warning: %v", "Kraken", "EGeneral:Unknown method")
	out := buf.String()
	assert.Contains(t, out, "subsystem=EXCHANGE", "Output should be tagged with the sub-system")
	assert.Contains(t, out, "EGeneral:Unknown method", "Output should contain the message")

	buf.Reset()
	Debugf(ExchangeSys, "hidden")
	assert.Empty(t, buf.String(), "Debug should not log at info level")

	require.NoError(t, SetLevel("debug"))
	t.Cleanup(func() { _ = SetLevel("info") })
	Debugf(ExchangeSys, "visible")
	assert.Contains(t, buf.String(), "visible", "Debug should log at debug level")
}

func TestSubLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	s := NewSubLogger("TEST")
	s.SetEnabled(false)
	Errorf(s, "should not appear")
	assert.Empty(t, buf.String(), "Disabled sub-system should not log")

	Errorf(nil, "nil sub-logger is ignored")
	assert.Empty(t, buf.String())

	s.SetEnabled(true)
	Warnf(s, "now it does")
	assert.Contains(t, buf.String(), "now it does")
	assert.Equal(t, "TEST", s.Name())
}

func TestSetLevel(t *testing.T) {
	assert.Error(t, SetLevel("shouty"), "SetLevel should reject unknown levels")
}

func TestSetJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetJSONFormat(true)
	t.Cleanup(func() {
		SetJSONFormat(false)
		SetOutput(os.Stdout)
	})

	Infof(DatabaseSys, "stored %d candles", 7)
	assert.Contains(t, buf.String(), `"subsystem":"DATABASE"`)
	assert.Contains(t, buf.String(), `"msg":"stored 7 candles"`)
}

func TestSetSubsystemsEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		assert.NoError(t, SetSubsystemsEnabled([]string{"feed"}, true))
	})

	require.NoError(t, SetSubsystemsEnabled([]string{"feed"}, false), "Known names must match case insensitively")
	Infof(FeedSys, "fetched sentiment")
	assert.Empty(t, buf.String(), "Disabled sub-system should not log")
	Infof(ConfigSys, "loaded config")
	assert.Contains(t, buf.String(), "loaded config", "Other sub-systems should still log")

	buf.Reset()
	err := SetSubsystemsEnabled([]string{"FEED", "NOPE"}, true)
	assert.ErrorIs(t, err, errUnknownSubsystem)
	assert.ErrorContains(t, err, "NOPE")
	Infof(FeedSys, "still quiet")
	assert.Empty(t, buf.String(), "Unknown names should leave every sub-system unchanged")
}
