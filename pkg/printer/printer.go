package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Printer handles various output formats
type Printer struct {
	out        io.Writer
	outputType OutputType
}

// New creates a new printer with the specified output type
func New(outputType OutputType) *Printer {
	return &Printer{
		out:        os.Stdout,
		outputType: outputType,
	}
}

// SetOutput sets the output writer
func (p *Printer) SetOutput(out io.Writer) {
	p.out = out
}

// Structured reports whether the output type is a machine-readable format.
func (p *Printer) Structured() bool {
	return p.outputType == OutputTypeJSON || p.outputType == OutputTypeYAML
}

// Print writes data as JSON or YAML; for table output it calls table instead.
func (p *Printer) Print(data any, table func(io.Writer) error) error {
	switch p.outputType {
	case OutputTypeJSON:
		return p.PrintJSON(data)
	case OutputTypeYAML:
		return p.PrintYAML(data)
	default:
		return table(p.out)
	}
}

// PrintJSON prints data in JSON format
func (p *Printer) PrintJSON(data any) error {
	encoder := json.NewEncoder(p.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to output JSON: %w", err)
	}
	return nil
}

// PrintYAML prints data in YAML format
func (p *Printer) PrintYAML(data any) error {
	encoder := yaml.NewEncoder(p.out)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to output YAML: %w", err)
	}
	return encoder.Close()
}

// ParseOutputType validates an --output flag value.
func ParseOutputType(s string) (OutputType, error) {
	switch t := OutputType(s); t {
	case "", OutputTypeTable:
		return OutputTypeTable, nil
	case OutputTypeJSON, OutputTypeYAML:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table, json, yaml)", s)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	_, _ = fmt.Fprintf(os.Stderr, "Warning: %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	_, _ = fmt.Fprintf(os.Stdout, "%s\n", message)
}
