package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chatlist/fanout/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/simonfrey/jsonl"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	Markdown Format = "markdown"
	Json     Format = "json"
	Jsonl    Format = "jsonl"
	Xlsx     Format = "xlsx"
)

const (
	dateLayout = "2006-01-02 15:04:05"
	sheetName  = "Results"
)

var extensions = map[string]Format{
	".md":       Markdown,
	".markdown": Markdown,
	".json":     Json,
	".jsonl":    Jsonl,
	".ndjson":   Jsonl,
	".xlsx":     Xlsx,
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))

	if f == "md" {
		return Markdown, nil
	}

	if !lo.Contains([]Format{Markdown, Json, Jsonl, Xlsx}, f) {
		return "", errors.Newf("unknown export format '%s' (expected markdown, json, jsonl or xlsx)", s)
	}

	return f, nil
}

// FormatFromPath infers the format from the file extension, defaulting to
// markdown.
func FormatFromPath(path string) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}

	return Markdown
}

// Record is one exported result.
type Record struct {
	Date     string `json:"date"`
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Response string `json:"response"`
	Tags     string `json:"tags"`
}

func Records(results []store.Result) []Record {
	return lo.Map(results, func(r store.Result, _ int) Record {
		return Record{
			Date:     r.CreatedAt.Format(dateLayout),
			Prompt:   r.Prompt,
			Model:    r.ModelName,
			Response: r.Response,
			Tags:     r.Tags,
		}
	})
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case Markdown:
		return writeMarkdown(w, records)
	case Json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		return enc.Encode(lo.Ternary(records == nil, []Record{}, records))
	case Jsonl:
		out := jsonl.NewWriter(w)

		for _, record := range records {
			if err := out.Write(record); err != nil {
				return errors.Wrap(err, "could not write JSONL record")
			}
		}

		return nil
	case Xlsx:
		return writeXlsx(w, records)
	default:
		return errors.Newf("unknown export format '%s'", format)
	}
}

func writeMarkdown(w io.Writer, records []Record) error {
	var b strings.Builder

	b.WriteString("# ChatList results export\n\n")

	for _, r := range records {
		fmt.Fprintf(&b, "## %s - %s\n\n", r.Model, r.Date)
		fmt.Fprintf(&b, "**Prompt:** %s\n\n", r.Prompt)
		fmt.Fprintf(&b, "**Response:**\n%s\n\n", r.Response)

		if r.Tags != "" {
			fmt.Fprintf(&b, "**Tags:** %s\n\n", r.Tags)
		}

		b.WriteString("---\n\n")
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func writeXlsx(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "could not name sheet")
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{"Date", "Prompt", "Model", "Response", "Tags"}); err != nil {
		return errors.Wrap(err, "could not write header")
	}

	for idx, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheetName, cell, &[]any{r.Date, r.Prompt, r.Model, r.Response, r.Tags}); err != nil {
			return errors.Wrapf(err, "could not write row %d", idx+1)
		}
	}

	if err := f.SetColWidth(sheetName, "B", "B", 50); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "D", "D", 80); err != nil {
		return err
	}

	return f.Write(w)
}
