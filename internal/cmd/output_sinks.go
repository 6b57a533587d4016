package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/earnbuzz/earnbuzz/internal/output"
)

const (
	flagOutputFormat = "output-format"
	flagOut          = "out"
	flagOutDir       = "out-dir"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagOutputFormat, string(output.FormatTable), "Output format: table|json|markdown")
	cmd.Flags().String(flagOut, "", "Write output to a file (default stdout)")
	cmd.Flags().String(flagOutDir, "", "Write output to <dir>/<view>.<ext>")
}

// outputOptions is the parsed form of the output flags.
type outputOptions struct {
	format output.Format
	file   string
	dir    string
}

func readOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	flags := cmd.Flags()
	rawFormat, err := flags.GetString(flagOutputFormat)
	if err != nil {
		return outputOptions{}, err
	}
	format, err := output.ParseFormat(rawFormat)
	if err != nil {
		return outputOptions{}, err
	}
	file, err := flags.GetString(flagOut)
	if err != nil {
		return outputOptions{}, err
	}
	dir, err := flags.GetString(flagOutDir)
	if err != nil {
		return outputOptions{}, err
	}

	opts := outputOptions{format: format, file: strings.TrimSpace(file), dir: strings.TrimSpace(dir)}
	if opts.file != "" && opts.dir != "" {
		return outputOptions{}, fmt.Errorf("--%s and --%s are mutually exclusive", flagOut, flagOutDir)
	}
	return opts, nil
}

// extension is the file suffix used with --out-dir.
func (o outputOptions) extension() string {
	switch o.format {
	case output.FormatJSON:
		return "json"
	case output.FormatMarkdown:
		return "md"
	}
	return "txt"
}

// destination resolves where a view named name is written; "" means stdout.
func (o outputOptions) destination(name string) string {
	if o.dir == "" {
		if o.file == "-" {
			return ""
		}
		return o.file
	}
	dir := o.dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Join(dir, sanitizeFilename(name)+"."+o.extension())
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// open returns the writer for view name, creating parent directories for
// file targets.
func (o outputOptions) open(name string) (io.WriteCloser, error) {
	path := o.destination(name)
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	// #nosec G301 -- user-chosen output directory
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	// #nosec G304 -- path comes from --out or --out-dir
	return os.Create(path)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := unsafeFilenameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	if clean = strings.Trim(clean, "-."); clean != "" {
		return clean
	}
	return "output"
}

// emitView renders a view with the command's output flags. name seeds the
// file name under --out-dir.
func emitView(cmd *cobra.Command, name string, render func(output.Formatter) (string, error)) (err error) {
	opts, err := readOutputOptions(cmd)
	if err != nil {
		return err
	}
	rendered, err := render(output.NewFormatter(opts.format))
	if err != nil {
		return err
	}

	w, err := opts.open(name)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, w.Close()) }()

	_, err = fmt.Fprintln(w, rendered)
	return err
}
