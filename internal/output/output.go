// Package output is frog's terminal rendering layer: human-readable
// success/error/info lines, tables, spinners, and the machine-readable
// JSON form of a dispatch result, all funneled through one configurable
// writer pair so --quiet and --json behave consistently everywhere.
//
// Grounded directly on the teacher's pterm-based UI package: same
// Configure/Verbosity/quiet-mode shape, same reliance on pterm's
// Success/Error/Warning/Info printers and DefaultTable/DefaultSpinner,
// generalized from "devcontainer status" tables to frog's per-host
// envelope rendering.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"

	"github.com/griffithind/frog/internal/envelope"
)

// Format selects how dispatch results are rendered.
type Format string

const (
	FormatText        Format = "text"
	FormatJSON        Format = "json"
	FormatPrettyJSON  Format = "pretty-json"
	FormatTable       Format = "table"
	FormatPrettyPrint Format = "pprint"
)

// Verbosity controls how much non-essential output is printed.
type Verbosity int

const (
	VerbosityQuiet   Verbosity = -1
	VerbosityNormal  Verbosity = 0
	VerbosityVerbose Verbosity = 1
)

// Config configures the package-level output state.
type Config struct {
	Format    Format
	Verbosity Verbosity
	NoColor   bool
	Writer    io.Writer
	ErrWriter io.Writer
}

var (
	config   Config
	configMu sync.Mutex
)

func init() {
	config = Config{
		Format:    FormatText,
		Verbosity: VerbosityNormal,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// Configure replaces the package-level output configuration, applying it
// to pterm's default writer and color state.
func Configure(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()

	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	config = cfg

	if cfg.NoColor {
		pterm.DisableColor()
	} else {
		pterm.EnableColor()
	}
	pterm.SetDefaultOutput(cfg.Writer)
}

func current() Config {
	configMu.Lock()
	defer configMu.Unlock()
	return config
}

// IsQuiet reports whether quiet mode is active.
func IsQuiet() bool {
	return current().Verbosity == VerbosityQuiet
}

// IsVerbose reports whether verbose mode is active.
func IsVerbose() bool {
	return current().Verbosity == VerbosityVerbose
}

// Writer returns the configured stdout-equivalent writer.
func Writer() io.Writer {
	return current().Writer
}

// ErrWriter returns the configured stderr-equivalent writer.
func ErrWriter() io.Writer {
	return current().ErrWriter
}

// Success prints a success line unless quiet.
func Success(format string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	pterm.Success.Printf(format+"\n", args...)
}

// Error prints an error line; never suppressed by quiet mode.
func Error(format string, args ...interface{}) {
	pterm.Error.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Warning prints a warning line unless quiet.
func Warning(format string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	pterm.Warning.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Info prints an info line unless quiet.
func Info(format string, args ...interface{}) {
	if IsQuiet() {
		return
	}
	pterm.Info.Printf(format+"\n", args...)
}

// Verbose prints a dimmed line only when verbose mode is active.
func Verbose(format string, args ...interface{}) {
	if !IsVerbose() {
		return
	}
	pterm.FgGray.Printf(format+"\n", args...)
}

// Spinner wraps a pterm spinner, becoming a no-op under quiet mode.
type Spinner struct {
	printer *pterm.SpinnerPrinter
}

// StartSpinner starts a spinner with the given message, or a no-op
// spinner when quiet.
func StartSpinner(message string) *Spinner {
	if IsQuiet() {
		return &Spinner{}
	}
	s, _ := pterm.DefaultSpinner.Start(message)
	return &Spinner{printer: s}
}

func (s *Spinner) Success(message string) {
	if s.printer != nil {
		s.printer.Success(message)
	}
}

func (s *Spinner) Fail(message string) {
	if s.printer != nil {
		s.printer.Fail(message)
	}
}

func (s *Spinner) UpdateText(message string) {
	if s.printer != nil {
		s.printer.UpdateText(message)
	}
}

// RenderTable renders headers and rows as a pterm table, doing nothing
// under quiet mode.
func RenderTable(headers []string, rows [][]string) error {
	if IsQuiet() {
		return nil
	}
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// RenderResults writes a dispatch's per-host envelopes to the configured
// writer in the configured Format.
func RenderResults(results []envelope.Envelope) error {
	switch current().Format {
	case FormatJSON:
		return renderJSON(results, false)
	case FormatPrettyJSON:
		return renderJSON(results, true)
	case FormatTable:
		return renderTable(results)
	case FormatPrettyPrint:
		return renderPrettyPrint(results)
	default:
		return renderText(results)
	}
}

func renderJSON(results []envelope.Envelope, pretty bool) error {
	enc := json.NewEncoder(Writer())
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(results)
}

func renderTable(results []envelope.Envelope) error {
	headers := []string{"HOST", "STATUS", "OUTCOME"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Success() {
			status = "failed"
		}
		outcome, err := json.Marshal(r.Outcome())
		if err != nil {
			outcome = []byte(err.Error())
		}
		rows = append(rows, []string{r.Host, status, string(outcome)})
	}
	return RenderTable(headers, rows)
}

// renderPrettyPrint renders each host's outcome as a pterm tree, the
// fourth formatter the original mentioned among as_json/as_texttable's
// choices but never actually implemented.
func renderPrettyPrint(results []envelope.Envelope) error {
	for _, r := range results {
		root := pterm.TreeNode{
			Text:     r.Host,
			Children: []pterm.TreeNode{structNode("outcome", r.Outcome())},
		}
		if err := pterm.DefaultTree.WithRoot(root).Render(); err != nil {
			return err
		}
	}
	return nil
}

func structNode(label string, value interface{}) pterm.TreeNode {
	switch v := value.(type) {
	case map[string]interface{}:
		node := pterm.TreeNode{Text: label}
		for k, child := range v {
			node.Children = append(node.Children, structNode(k, child))
		}
		return node
	case []interface{}:
		node := pterm.TreeNode{Text: label}
		for i, child := range v {
			node.Children = append(node.Children, structNode(fmt.Sprintf("[%d]", i), child))
		}
		return node
	default:
		return pterm.TreeNode{Text: fmt.Sprintf("%s: %v", label, v)}
	}
}

func renderText(results []envelope.Envelope) error {
	for _, r := range results {
		if r.Success() {
			Success("%s: ok", r.Host)
		} else {
			Error("%s: failed", r.Host)
		}
	}
	return nil
}
