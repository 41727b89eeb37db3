package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/spendstat/pkg/models"
)

// BatchInput is a report per ledger plus one for all of them together.
type BatchInput struct {
	Ledgers  []Input
	Combined Input
}

type batchView struct {
	Ledgers  []view `yaml:"ledgers" json:"ledgers"`
	Combined view   `yaml:"combined" json:"combined"`
}

// WriteBatch renders every ledger followed by the combined report. YAML and
// JSON produce a single document.
func WriteBatch(w io.Writer, b BatchInput, format Format) error {
	switch format {
	case FormatText, "":
		for _, in := range b.Ledgers {
			fmt.Fprintln(w, titleStyle.Render("== "+in.Source))
			if err := Text(w, in); err != nil {
				return err
			}
		}
		fmt.Fprintln(w, titleStyle.Render("== "+b.Combined.Source+" (all ledgers)"))
		return Text(w, b.Combined)
	case FormatYAML, FormatJSON:
		bv := batchView{Ledgers: make([]view, 0, len(b.Ledgers)), Combined: newView(b.Combined)}
		for _, in := range b.Ledgers {
			bv.Ledgers = append(bv.Ledgers, newView(in))
		}
		if format == FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(bv)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(bv); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Categories lists the category enumeration with the aliases that map to
// each entry.
func Categories(w io.Writer, aliases models.Aliases) {
	byCategory := make(map[models.Category][]string)
	for label, c := range aliases {
		byCategory[c] = append(byCategory[c], label)
	}

	t := newTable("Category", "Aliases")
	for _, c := range models.Categories() {
		labels := byCategory[c]
		sort.Strings(labels)
		t.Row(c.String(), strings.Join(labels, ", "))
	}
	fmt.Fprintln(w, t.Render())
}
