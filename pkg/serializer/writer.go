package serializer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of serialized output.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// IsUnknown reports whether the format is not one of the supported encodings.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatYAML, FormatJSON, FormatTable:
		return false
	}
	return true
}

// Writer serializes values to an io.Writer in the configured format.
type Writer struct {
	format Format
	out    io.Writer
}

// NewWriter creates a Writer emitting the given format to out.
func NewWriter(format Format, out io.Writer) *Writer {
	return &Writer{format: format, out: out}
}

// NewStdoutWriter creates a Writer emitting the given format to stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, os.Stdout)
}

// Serialize writes data to the underlying writer in the configured format.
func (w *Writer) Serialize(ctx context.Context, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch w.format {
	case FormatJSON:
		j, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize to json: %w", err)
		}
		_, err = fmt.Fprintln(w.out, string(j))
		return err

	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to serialize to yaml: %w", err)
		}
		return enc.Close()

	case FormatTable:
		return w.serializeTable(data)

	default:
		return fmt.Errorf("unknown output format: %q", w.format)
	}
}

type tableRow struct {
	key   string
	value any
}

// serializeTable renders data as a flattened two-column FIELD/VALUE table.
// Nested fields become dotted keys; slice elements become [i] segments.
func (w *Writer) serializeTable(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to flatten data for table output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to flatten data for table output: %w", err)
	}

	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	for _, row := range flatten("", generic) {
		fmt.Fprintf(tw, "%s\t%v\n", row.key, row.value)
	}
	return tw.Flush()
}

func flatten(prefix string, v any) []tableRow {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([]tableRow, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, flatten(joinKey(prefix, k), val[k])...)
		}
		return rows
	case []any:
		var rows []tableRow
		for i, elem := range val {
			rows = append(rows, flatten(fmt.Sprintf("%s[%d]", prefix, i), elem)...)
		}
		return rows
	default:
		return []tableRow{{key: prefix, value: val}}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
