// Package log provides the namespaced, colorized logger used across every
// package of this module, in the style of zishang520/socket.io's pkg/log.
package log

import (
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/gookit/color"
)

// Global configuration, shared by every Log instance created with NewLog.
var (
	DEBUG  bool      = false
	Output io.Writer = os.Stderr
	Prefix string    = ""
	Flags  int       = 0
)

// Log is a namespaced logger. The namespace doubles as the log prefix and,
// when the DEBUG environment variable is set to a glob, as a filter for
// which namespaces emit Debug output.
type Log struct {
	*log.Logger

	prefix          atomic.Pointer[string]
	namespaceRegexp *regexp.Regexp
}

// NewLog creates a logger for the given namespace, e.g. "elephantio:engine".
func NewLog(namespace string) *Log {
	l := &Log{Logger: log.New(Output, Prefix, Flags)}
	if namespace != "" {
		l.SetPrefix(namespace)
	}
	if debug := os.Getenv("DEBUG"); debug != "" {
		pattern := "^" + strings.ReplaceAll(regexp.QuoteMeta(strings.TrimSpace(debug)), `\*`, `.*`) + "$"
		l.namespaceRegexp = regexp.MustCompile(pattern)
	}
	return l
}

func (l *Log) checkNamespace(namespace string) bool {
	return l.namespaceRegexp != nil && l.namespaceRegexp.MatchString(namespace)
}

// Prefix returns the logger's namespace.
func (l *Log) Prefix() string {
	if v := l.prefix.Load(); v != nil {
		return *v
	}
	return ""
}

// SetPrefix changes the logger's namespace.
func (l *Log) SetPrefix(namespace string) {
	l.prefix.Store(&namespace)
	l.Logger.SetPrefix(namespace + " ")
}

// Debug logs a message only when DEBUG is set and the namespace matches the
// DEBUG environment filter.
func (l *Log) Debug(message string, args ...any) {
	if DEBUG && l.checkNamespace(l.Prefix()) {
		l.Logger.Println(color.Debug.Sprintf(message, args...))
	}
}

// Info logs an informational lifecycle message (handshake, upgrade, close).
func (l *Log) Info(message string, args ...any) {
	l.Logger.Println(color.Info.Sprintf(message, args...))
}

// Warning logs a recoverable condition (e.g. a drained timeout).
func (l *Log) Warning(message string, args ...any) {
	l.Logger.Println(color.Warn.Sprintf(message, args...))
}

// Error logs a fatal or surfaced error.
func (l *Log) Error(message string, args ...any) {
	l.Logger.Println(color.Danger.Sprintf(message, args...))
}
