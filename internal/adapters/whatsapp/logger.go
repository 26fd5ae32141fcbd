package whatsapp

import (
	"fmt"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// zerologAdapter пробрасывает внутренние логи whatsmeow в zerolog.
type zerologAdapter struct {
	log zerolog.Logger
}

var _ waLog.Logger = zerologAdapter{}

// NewLogger оборачивает zerolog.Logger в интерфейс логгера whatsmeow.
func NewLogger(logger zerolog.Logger, module string) waLog.Logger {
	return zerologAdapter{log: logger.With().Str("module", module).Logger()}
}

func (z zerologAdapter) Warnf(msg string, args ...interface{}) {
	z.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (z zerologAdapter) Errorf(msg string, args ...interface{}) {
	z.log.Error().Msg(fmt.Sprintf(msg, args...))
}

func (z zerologAdapter) Infof(msg string, args ...interface{}) {
	z.log.Info().Msg(fmt.Sprintf(msg, args...))
}

func (z zerologAdapter) Debugf(msg string, args ...interface{}) {
	z.log.Debug().Msg(fmt.Sprintf(msg, args...))
}

func (z zerologAdapter) Sub(module string) waLog.Logger {
	return zerologAdapter{log: z.log.With().Str("submodule", module).Logger()}
}
