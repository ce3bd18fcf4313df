package badger

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
)

// boltLogger forwards badger's printf-style messages to the structured logger.
type boltLogger struct{}

// NewLogger returns a badger.Logger writing through the default bolt logger,
// tagged with component "timeline".
func NewLogger() badger.Logger {
	return boltLogger{}
}

func (boltLogger) Errorf(format string, args ...any) {
	logging.Error().Add(logging.Component("timeline")).Msg(line(format, args))
}

func (boltLogger) Warningf(format string, args ...any) {
	logging.Warn().Add(logging.Component("timeline")).Msg(line(format, args))
}

func (boltLogger) Infof(format string, args ...any) {
	logging.Debug().Add(logging.Component("timeline")).Msg(line(format, args))
}

func (boltLogger) Debugf(format string, args ...any) {
	logging.Trace().Add(logging.Component("timeline")).Msg(line(format, args))
}

// badger terminates most messages with a newline.
func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
