// Package log provides sub-system scoped logging. Each SubLogger tags its
// entries with the sub-system name and can be enabled or disabled on its own.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Global sub-systems
var (
	Global      = NewSubLogger("LOG")
	ConfigSys   = NewSubLogger("CONFIG")
	ExchangeSys = NewSubLogger("EXCHANGE")
	RequestSys  = NewSubLogger("REQUESTER")
	DatabaseSys = NewSubLogger("DATABASE")
	FeedSys     = NewSubLogger("FEED")
)

var (
	mu   sync.RWMutex
	base = newBase(os.Stdout)

	registryMtx sync.Mutex
	registry    []*SubLogger
)

var errUnknownSubsystem = errors.New("unknown log sub-system")

// SubLogger defines a named sub-system logger
type SubLogger struct {
	name    string
	enabled atomic.Bool
}

// NewSubLogger returns an enabled sub-system logger with the given name
func NewSubLogger(name string) *SubLogger {
	s := &SubLogger{name: name}
	s.enabled.Store(true)
	registryMtx.Lock()
	registry = append(registry, s)
	registryMtx.Unlock()
	return s
}

// Name returns the sub-system name
func (s *SubLogger) Name() string {
	return s.name
}

// SetEnabled toggles output for the sub-system
func (s *SubLogger) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// SetSubsystemsEnabled toggles output for the named sub-systems. Names match
// case insensitively. If any name is unknown nothing is changed.
func SetSubsystemsEnabled(names []string, enabled bool) error {
	registryMtx.Lock()
	defer registryMtx.Unlock()
	var (
		matched []*SubLogger
		errs    error
	)
	for _, name := range names {
		found := false
		for _, s := range registry {
			if strings.EqualFold(s.Name(), name) {
				matched = append(matched, s)
				found = true
			}
		}
		if !found {
			errs = errors.Join(errs, fmt.Errorf("%w: %q", errUnknownSubsystem, name))
		}
	}
	if errs != nil {
		return errs
	}
	for _, s := range matched {
		s.SetEnabled(enabled)
	}
	return nil
}

func newBase(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "02/01/2006 15:04:05",
	})
	return l
}

// SetOutput redirects all sub-system output to w
func SetOutput(w io.Writer) {
	mu.Lock()
	base.SetOutput(w)
	mu.Unlock()
}

// SetLevel sets the minimum level logged. Accepts logrus level names such as
// "debug", "info", "warn" and "error".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	base.SetLevel(lvl)
	mu.Unlock()
	return nil
}

// SetJSONFormat switches the output to one JSON object per line
func SetJSONFormat(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		base.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "02/01/2006 15:04:05"})
}

// Debugf logs at debug level
func Debugf(s *SubLogger, format string, args ...any) {
	logf(s, logrus.DebugLevel, format, args...)
}

// Infof logs at info level
func Infof(s *SubLogger, format string, args ...any) {
	logf(s, logrus.InfoLevel, format, args...)
}

// Warnf logs at warn level
func Warnf(s *SubLogger, format string, args ...any) {
	logf(s, logrus.WarnLevel, format, args...)
}

// Errorf logs at error level
func Errorf(s *SubLogger, format string, args ...any) {
	logf(s, logrus.ErrorLevel, format, args...)
}

func logf(s *SubLogger, lvl logrus.Level, format string, args ...any) {
	if s == nil || !s.enabled.Load() {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	base.WithField("subsystem", s.name).Logf(lvl, format, args...)
}
