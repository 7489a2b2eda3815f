// Package report renders stored startups as a flat listing.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/startupscout/internal/model"
	"github.com/ppiankov/startupscout/internal/store"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Fallbacks for blank fields in the text listing
const (
	UnnamedStartup  = "Unnamed Startup"
	NoLocation      = "Not specified"
	NoWebsite       = "No website"
	NoDescription   = "No description"
	separatorLength = 50
)

// listing is the JSON/YAML envelope
type listing struct {
	Total    int                   `json:"total" yaml:"total"`
	Startups []model.StoredStartup `json:"startups" yaml:"startups"`
}

// Render writes rows in the requested format. Rows are written in the order
// given; the store already returns them ordered by name.
func Render(w io.Writer, rows []model.StoredStartup, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return renderText(w, rows)
	case FormatJSON:
		return renderJSON(w, listing{Total: len(rows), Startups: nonNil(rows)})
	case FormatYAML:
		return renderYAML(w, listing{Total: len(rows), Startups: nonNil(rows)})
	default:
		return fmt.Errorf("unknown report format: %s (supported: text, json, yaml)", format)
	}
}

func renderText(w io.Writer, rows []model.StoredStartup) error {
	var b strings.Builder

	b.WriteString("📊 EXTRACTED STARTUPS\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "\n%d. 🏢 %s\n", i+1, orDefault(r.StartupName, UnnamedStartup))
		fmt.Fprintf(&b, "   📍 Location: %s\n", orDefault(r.Location, NoLocation))
		fmt.Fprintf(&b, "   🌐 URL: %s\n", orDefault(r.CompanyURL, NoWebsite))
		fmt.Fprintf(&b, "   📝 Description: %s\n", orDefault(r.Description, NoDescription))
		b.WriteString(strings.Repeat("-", separatorLength))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n✅ Total startups extracted: %d\n", len(rows))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderQuery writes the result of an ad-hoc SELECT
func RenderQuery(w io.Writer, result *store.QueryResult, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return renderQueryText(w, result)
	case FormatJSON:
		return renderJSON(w, queryMaps(result))
	case FormatYAML:
		return renderYAML(w, queryRecords(result))
	default:
		return fmt.Errorf("unknown report format: %s (supported: text, json, yaml)", format)
	}
}

func renderQueryText(w io.Writer, result *store.QueryResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cellString(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n(%d rows)\n", len(result.Rows))
	return err
}

// queryRecords keys every row by column name, keeping column order for YAML
func queryRecords(result *store.QueryResult) []yaml.Node {
	records := make([]yaml.Node, 0, len(result.Rows))
	for _, row := range result.Rows {
		node := yaml.Node{Kind: yaml.MappingNode}
		for i, col := range result.Columns {
			var value yaml.Node
			if err := value.Encode(normalizeCell(row[i])); err != nil {
				value = yaml.Node{Kind: yaml.ScalarNode, Value: cellString(row[i])}
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: col},
				&value)
		}
		records = append(records, node)
	}
	return records
}

func queryMaps(result *store.QueryResult) []map[string]any {
	records := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		rec := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			rec[col] = normalizeCell(row[i])
		}
		records = append(records, rec)
	}
	return records
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func normalizeCell(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func cellString(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func nonNil(rows []model.StoredStartup) []model.StoredStartup {
	if rows == nil {
		return []model.StoredStartup{}
	}
	return rows
}
