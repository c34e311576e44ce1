package common

import (
	"context"
	"time"

	"placement/internal/errors"
)

// OperationFunc runs one service operation for a CLI command.
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs op, logs its duration and writes the result through the
// output handler in the configured format.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	name string,
	op OperationFunc[Output],
) error {
	outputHandler := NewOutputHandler(logger)
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	logger.Debug("Running command", "command", name, "output_format", cmdConfig.OutputFormat)

	start := time.Now()
	result, err := op(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Command completed", "command", name, "duration", time.Since(start))

	return outputHandler.HandleOutput(result, cmdConfig)
}
