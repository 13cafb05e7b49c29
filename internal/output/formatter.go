package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Modes accepted by New
var Modes = []string{"auto", "json", "plain", "rich"}

// Formatter is the interface for output formatting
type Formatter interface {
	Print(data any) error
	PrintList(items any, columns []Column) error
	PrintError(err error)
	PrintHint(msg string)
}

// Column defines a column for table/list output
type Column struct {
	Name  string // Display name
	Key   string // Struct field name or map key
	Width int    // Width for rich mode (0 = auto)
}

// New creates a formatter for the specified mode writing to stdout/stderr
func New(mode string) Formatter {
	return NewWithWriters(mode, os.Stdout, os.Stderr)
}

// NewWithWriters creates a formatter for mode writing to out and errOut.
// "auto" picks rich on a terminal and plain otherwise.
func NewWithWriters(mode string, out, errOut io.Writer) Formatter {
	if mode == "auto" || mode == "" {
		mode = "plain"
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			mode = "rich"
		}
	}

	switch mode {
	case "json":
		return &jsonFormatter{out: out, err: errOut}
	case "rich":
		return &richFormatter{out: out, err: errOut, profile: termenv.NewOutput(out).Profile}
	default:
		return &plainFormatter{out: out, err: errOut}
	}
}

// NewJSON creates a JSON formatter with optional results-only mode
func NewJSON(resultsOnly bool) Formatter {
	return &jsonFormatter{out: os.Stdout, err: os.Stderr, resultsOnly: resultsOnly}
}

// jsonFormatter outputs JSON
type jsonFormatter struct {
	out, err    io.Writer
	resultsOnly bool
}

func (f *jsonFormatter) Print(data any) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *jsonFormatter) PrintList(items any, columns []Column) error {
	if f.resultsOnly {
		return f.Print(items)
	}

	// Otherwise, wrap in envelope with metadata
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	count := 0
	if v.Kind() == reflect.Slice {
		count = v.Len()
	}

	return f.Print(map[string]any{
		"data":  items,
		"count": count,
	})
}

func (f *jsonFormatter) PrintError(err error) {
	enc := json.NewEncoder(f.err)
	enc.SetIndent("", "  ")
	enc.Encode(map[string]string{"error": err.Error()})
}

// PrintHint is a no-op; hints would break machine-readable stderr
func (f *jsonFormatter) PrintHint(msg string) {}

// plainFormatter outputs tab-separated values
type plainFormatter struct {
	out, err io.Writer
}

func (f *plainFormatter) Print(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			fmt.Fprintf(f.out, "%s\t%v\n", t.Field(i).Name, v.Field(i).Interface())
		}
		return nil
	}

	fmt.Fprintf(f.out, "%v\n", data)
	return nil
}

func (f *plainFormatter) PrintList(items any, columns []Column) error {
	rows, err := extractRows(items, columns)
	if err != nil {
		return err
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	fmt.Fprintf(f.out, "%s\n", strings.Join(headers, "\t"))

	for _, row := range rows {
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = row[col.Key]
		}
		fmt.Fprintf(f.out, "%s\n", strings.Join(values, "\t"))
	}
	return nil
}

func (f *plainFormatter) PrintError(err error) {
	fmt.Fprintf(f.err, "error: %v\n", err)
}

func (f *plainFormatter) PrintHint(msg string) {
	fmt.Fprintf(f.err, "hint: %v\n", msg)
}

// richFormatter outputs styled content for terminal
type richFormatter struct {
	out, err io.Writer
	profile  termenv.Profile
}

func (f *richFormatter) Print(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		keyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			fmt.Fprintf(f.out, "%s: %v\n", f.render(keyStyle, t.Field(i).Name), v.Field(i).Interface())
		}
		return nil
	}

	fmt.Fprintf(f.out, "%v\n", data)
	return nil
}

func (f *richFormatter) PrintList(items any, columns []Column) error {
	rows, err := extractRows(items, columns)
	if err != nil {
		return err
	}
	RenderTable(f.out, columns, rows)
	return nil
}

func (f *richFormatter) PrintError(err error) {
	errorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fmt.Fprintf(f.err, "%s\n", f.render(errorStyle, "error: "+err.Error()))
}

func (f *richFormatter) PrintHint(msg string) {
	hintStyle := lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("8"))
	fmt.Fprintf(f.err, "%s\n", f.render(hintStyle, "hint: "+msg))
}

// render applies style unless the output cannot show color
func (f *richFormatter) render(style lipgloss.Style, s string) string {
	if f.profile == termenv.Ascii {
		return s
	}
	return style.Render(s)
}

// extractRows flattens a slice of structs or maps into string rows keyed by Column.Key
func extractRows(items any, columns []Column) ([]map[string]string, error) {
	v := reflect.ValueOf(items)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("PrintList requires a slice")
	}

	rows := make([]map[string]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		if item.Kind() == reflect.Ptr {
			item = item.Elem()
		}

		row := make(map[string]string, len(columns))
		for _, col := range columns {
			switch item.Kind() {
			case reflect.Map:
				if mv := item.MapIndex(reflect.ValueOf(col.Key)); mv.IsValid() {
					row[col.Key] = fmt.Sprintf("%v", mv.Interface())
				}
			case reflect.Struct:
				if fv := item.FieldByName(col.Key); fv.IsValid() {
					row[col.Key] = fmt.Sprintf("%v", fv.Interface())
				}
			}
		}
		rows[i] = row
	}
	return rows, nil
}
