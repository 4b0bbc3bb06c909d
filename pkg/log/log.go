package log

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	// LogVerbosityFlag is the name of the verbosity flag.
	LogVerbosityFlag = "verbosity"

	// LogFormatFlag is the name of the log format flag.
	LogFormatFlag = "log-format"

	// LogOutputFlag is the name of the log output flag.
	LogOutputFlag = "log-output"
)

const (
	// LogFormatText specifies a textual log format.
	LogFormatText = "text"

	// LogFormatJSON specifies a JSON log format.
	LogFormatJSON = "json"
)

// Config represents the configuration settings for the logger.
type Config struct {
	// Verbosity specifies the logging verbosity level.
	Verbosity int
	// Format specifies the logging output format.
	Format string
	// Output specifies where to write the logs. Use stderr, stdout or a
	// file path.
	Output string
}

// Configure will configure the logger from the supplied config.
func Configure(logConfig *Config) error {
	configureVerbosity(logConfig)

	switch strings.ToLower(logConfig.Format) {
	case LogFormatJSON:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case LogFormatText:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return invalidLogFormatError{format: logConfig.Format}
	}

	switch strings.ToLower(logConfig.Output) {
	case "":
		return ErrLogOutputRequired
	case "stderr":
		logrus.SetOutput(os.Stderr)
	case "stdout":
		logrus.SetOutput(os.Stdout)
	default:
		logFile, err := os.OpenFile(logConfig.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", logConfig.Output, err)
		}

		logrus.SetOutput(logFile)
	}

	return nil
}

// AddFlagsToCommand will add the logging flags to the supplied command.
func AddFlagsToCommand(cmd *cobra.Command, config *Config) {
	cmd.PersistentFlags().IntVarP(&config.Verbosity,
		LogVerbosityFlag,
		"v",
		0,
		"The verbosity level of the logging. A level of 2 and above is debug logging, 9 and above is tracing.")

	cmd.PersistentFlags().StringVar(&config.Format,
		LogFormatFlag,
		LogFormatText,
		"The format of the logging output. Can be 'text' or 'json'.")

	cmd.PersistentFlags().StringVar(&config.Output,
		LogOutputFlag,
		"stderr",
		"The output for the logging. Supply a file path or one of the special values 'stderr' and 'stdout'.")
}

func configureVerbosity(logConfig *Config) {
	switch {
	case logConfig.Verbosity >= 9:
		logrus.SetLevel(logrus.TraceLevel)
	case logConfig.Verbosity >= 2:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

type logCtxKeyType string

const logCtxKey logCtxKeyType = "gpurun.logger"

// GetLogger will get a logger from the supplied context or return the
// standard logger.
func GetLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(logCtxKey)
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}

	entry, ok := logger.(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}

	return entry
}

// WithLogger attaches the logger to the supplied context.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, logCtxKey, logger)
}
