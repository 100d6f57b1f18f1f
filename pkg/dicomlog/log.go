// Package dicomlog provides the leveled logging used across this module,
// a thin wrapper over logrus so callers can dial verbosity without taking
// a direct logrus dependency in every package.
package dicomlog

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// level controls Vprintf verbosity. Higher is more verbose; -1 disables
// Vprintf output. Entries from Logger are not filtered by it.
var level = int32(0)

// SetLevel sets the verbosity level. Thread safe.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Level returns the current verbosity level. Thread safe.
func Level() int {
	return int(atomic.LoadInt32(&level))
}

// Vprintf logs format/args at level l if the current verbosity allows it.
func Vprintf(l int, format string, args ...interface{}) {
	if Level() >= l {
		logrus.Printf(format, args...)
	}
}

// Logger returns a logrus field logger tagged with component, for the
// association/DIMSE layers that want structured rather than printf logging.
func Logger(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
