// Package logging wraps logrus with the field conventions used across
// ledgerlite: every entry is tagged with the package ("component") that
// emitted it, and network-facing entries add a per-connection id so a
// single peer's handshake can be grepped out of an interleaved log.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
}

// SetLevel changes the log level; main raises it to debug when the
// LEDGERLITE_DEBUG environment variable is set.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// For returns a logger entry tagged with the calling package's name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
