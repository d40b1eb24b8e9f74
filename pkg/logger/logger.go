package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Migrate adapts a slog.Logger to golang-migrate's Logger interface.
type Migrate struct {
	log     *slog.Logger
	verbose bool
}

// NewMigrate returns a migrate logger tagged with component.
func NewMigrate(log *slog.Logger, component string, verbose bool) *Migrate {
	if log == nil {
		log = slog.Default()
	}
	return &Migrate{log: log.With("component", component), verbose: verbose}
}

// Printf logs one migrate message at info level.
func (m *Migrate) Printf(format string, v ...any) {
	m.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Verbose reports whether migrate should emit per-step messages.
func (m *Migrate) Verbose() bool {
	return m.verbose
}
