package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

var osExit = os.Exit

// ExitWithCode logs msg with foundry exit metadata and terminates with the
// semantic exit code. A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	code := int(exitCode)
	fields := errorFields(err)
	if info, ok := foundry.GetExitCodeInfo(exitCode); ok {
		code = info.Code
		fields = append(fields,
			zap.Int("exit_code", info.Code),
			zap.String("exit_name", info.Name),
			zap.String("exit_category", info.Category),
		)
	} else {
		fields = append(fields, zap.Int("exit_code", code))
	}

	logger.Error(msg, fields...)
	osExit(code)
}

// ExitWithCodeStderr is ExitWithCode for failures before the logger exists.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	osExit(describeExit(os.Stderr, exitCode, msg, err))
}

// describeExit writes the failure report and returns the process exit code.
func describeExit(w io.Writer, exitCode foundry.ExitCode, msg string, err error) int {
	switch envelope, isEnvelope := err.(*errors.ErrorEnvelope); {
	case err == nil:
		fmt.Fprintf(w, "FATAL: %s\n", msg)
	case isEnvelope && envelope != nil:
		fmt.Fprintf(w, "FATAL: %s [%s]: %s (correlation: %s)\n", msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		if cause := envelopeCause(envelope); cause != nil {
			fmt.Fprintf(w, "Underlying error: %v\n", cause)
		}
	default:
		fmt.Fprintf(w, "FATAL: %s: %v\n", msg, err)
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(w, "Exit Code: %d\n", int(exitCode))
		return int(exitCode)
	}
	fmt.Fprintf(w, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	return info.Code
}

func errorFields(err error) []zap.Field {
	envelope, ok := err.(*errors.ErrorEnvelope)
	if !ok || envelope == nil {
		return []zap.Field{zap.Error(err)}
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if len(envelope.Context) > 0 {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if cause := envelopeCause(envelope); cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	return fields
}

func envelopeCause(envelope *errors.ErrorEnvelope) error {
	if cause, ok := envelope.Original.(error); ok {
		return cause
	}
	return nil
}
