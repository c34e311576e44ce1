package common

import (
	"fmt"
	"slices"

	"placement/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the
// formats the registry can render.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}

	if !slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return fmt.Errorf("unknown output format '%s'. Available formats: %v",
			format, formatters.GlobalRegistry.GetSupportedFormats())
	}

	return nil
}

// GetSupportedFormats returns the configured formats the registry can render,
// for shell completion.
func GetSupportedFormats(supportedFormats []string) []string {
	available := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return available
	}
	out := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		if slices.Contains(available, f) {
			out = append(out, f)
		}
	}
	return out
}
