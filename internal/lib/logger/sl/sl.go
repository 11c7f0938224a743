package sl

import (
	"fmt"
	"log/slog"
)

// Err creates a slog.Attr with the given error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}

	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Trace creates a slog.Attr holding the full diagnostic rendering of err, including any stack it carries.
func Trace(err error) slog.Attr {
	if err == nil {
		return slog.String("trace", "")
	}

	return slog.String("trace", fmt.Sprintf("%+v", err))
}
