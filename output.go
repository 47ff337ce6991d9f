package pbsetup

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Output holds stdout and stderr writers for scaffold progress output.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer
}

// StdOutput returns an Output that writes to os.Stdout and os.Stderr.
func StdOutput() *Output {
	return &Output{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type outputKey struct{}

// WithOutput returns a new context carrying the given output.
func WithOutput(ctx context.Context, out *Output) context.Context {
	return context.WithValue(ctx, outputKey{}, out)
}

// OutputFromContext returns the output from the context, defaulting to
// StdOutput when none is set.
func OutputFromContext(ctx context.Context) *Output {
	if out, ok := ctx.Value(outputKey{}).(*Output); ok {
		return out
	}
	return StdOutput()
}

// Printf writes formatted output to the context's stdout writer.
func Printf(ctx context.Context, format string, args ...any) {
	fmt.Fprintf(OutputFromContext(ctx).Stdout, format, args...)
}
