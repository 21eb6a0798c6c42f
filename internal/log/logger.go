package log

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the console logger. The CLI hands it stderr so log lines never
// mix with command output. level overrides the environment default when set.
func New(environment, level string, w io.Writer) (zerolog.Logger, error) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	lvl := zerolog.DebugLevel
	if environment == "production" {
		lvl = zerolog.WarnLevel
	}
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}

	return zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("env", environment).
		Logger(), nil
}
