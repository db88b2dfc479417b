package badgerdb

import (
	"strings"

	"github.com/celer-network/rollup-committer/log"
)

// extendedLog routes badger's printf style logging into the db module logger.
type extendedLog struct {
	*log.Logger
}

func trimNewline(format string) string {
	return strings.TrimSuffix(format, "\n")
}

func (l *extendedLog) Errorf(format string, v ...interface{}) {
	l.Error().Msgf(trimNewline(format), v...)
}

func (l *extendedLog) Warningf(format string, v ...interface{}) {
	l.Warn().Msgf(trimNewline(format), v...)
}

func (l *extendedLog) Infof(format string, v ...interface{}) {
	l.Info().Msgf(trimNewline(format), v...)
}

func (l *extendedLog) Debugf(format string, v ...interface{}) {
	l.Debug().Msgf(trimNewline(format), v...)
}
