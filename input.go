package pbsetup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// InputSource supplies the values the interactive layer would
// otherwise prompt for. The scaffolder consumes this interface only,
// so a terminal prompter and a plain argument provider are
// interchangeable.
type InputSource interface {
	// ProjectDir returns the target project directory.
	ProjectDir() (string, error)

	// Version returns the requested release tag, or "" for the latest.
	// explicit reports whether the value was deliberately chosen rather
	// than defaulted; only explicit values may overwrite a pre-existing
	// project configuration.
	Version(available []string) (tag string, explicit bool, err error)

	// Port returns the server port, with the same explicitness rule.
	Port() (port int, explicit bool, err error)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ArgsInput answers from values supplied up front (CLI arguments),
// falling back to defaults for anything missing. It never prompts.
type ArgsInput struct {
	Dir     string
	Tag     string // empty means latest
	PortNum int
	PortSet bool
}

func (a ArgsInput) ProjectDir() (string, error) {
	if a.Dir == "" {
		return "", fmt.Errorf("project directory required")
	}
	return a.Dir, nil
}

func (a ArgsInput) Version([]string) (string, bool, error) {
	return a.Tag, a.Tag != "", nil
}

func (a ArgsInput) Port() (int, bool, error) {
	if !a.PortSet {
		return DefaultPort, false, nil
	}
	return a.PortNum, true, nil
}

// TerminalInput prompts for any value not preset from arguments.
// Values already supplied (Dir, Tag, PortSet) are returned without
// prompting, so partial argument lists only prompt for the gaps.
type TerminalInput struct {
	Dir     string
	Tag     string
	PortNum int
	PortSet bool

	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func (t *TerminalInput) readLine() (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *TerminalInput) ProjectDir() (string, error) {
	if t.Dir != "" {
		return t.Dir, nil
	}

	for {
		fmt.Fprint(t.Out, "Project directory (. for current): ")
		line, err := t.readLine()
		if err != nil {
			return "", err
		}
		if line == "" {
			continue
		}
		if line == "." {
			return os.Getwd()
		}

		dir := line
		// Warn when the directory exists and is not empty.
		if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
			fmt.Fprintf(t.Out, "%s is not empty. Continue? (y/n): ", dir)
			answer, err := t.readLine()
			if err != nil {
				return "", err
			}
			if strings.ToLower(answer) != "y" {
				continue
			}
		}
		return filepath.Abs(dir)
	}
}

func (t *TerminalInput) Version(available []string) (string, bool, error) {
	if t.Tag != "" {
		return t.Tag, true, nil
	}

	fmt.Fprintln(t.Out, "Available versions:")
	for i, tag := range available {
		fmt.Fprintf(t.Out, "  %d. %s\n", i+1, tag)
	}

	for {
		fmt.Fprintf(t.Out, "Select a version (1-%d, Enter for latest): ", len(available))
		line, err := t.readLine()
		if err != nil {
			return "", false, err
		}
		if line == "" {
			return "", false, nil
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 1 || idx > len(available) {
			fmt.Fprintf(t.Out, "Enter a number between 1 and %d\n", len(available))
			continue
		}
		return available[idx-1], true, nil
	}
}

func (t *TerminalInput) Port() (int, bool, error) {
	if t.PortSet {
		return t.PortNum, true, nil
	}

	fmt.Fprintf(t.Out, "Port (Enter for %d): ", DefaultPort)
	line, err := t.readLine()
	if err != nil {
		return 0, false, err
	}
	if line == "" {
		return DefaultPort, false, nil
	}

	port, err := strconv.Atoi(line)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrInvalidPort, line)
	}
	if err := ValidatePort(port); err != nil {
		return 0, false, err
	}
	return port, true, nil
}
