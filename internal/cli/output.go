package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/rwoody/mdc/pkg/rule"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var outputFormats = []string{outputText, outputJSON}

var headerStyle = lipgloss.NewStyle().Bold(true)

// matchDocument is the JSON shape of a resolved rule document.
type matchDocument struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Path        string   `json:"path"`
	Reason      string   `json:"reason,omitempty"`
	Body        string   `json:"body,omitempty"`
	Globs       []string `json:"globs,omitempty"`
	AlwaysApply bool     `json:"alwaysApply,omitempty"`
}

func newMatchDocument(doc *rule.Document, reason rule.Reason, withBody bool) matchDocument {
	md := matchDocument{
		ID:          doc.ID,
		Description: doc.Description,
		Path:        doc.Path,
		Reason:      string(reason),
		Globs:       doc.Globs,
		AlwaysApply: doc.AlwaysApply,
	}
	if withBody {
		md.Body = doc.Body
	}

	return md
}

// writeMatches concatenates the matched documents to w. With headers enabled,
// each document is prefixed with a line naming it and why it applies.
func writeMatches(w io.Writer, matches []rule.Match, format string, headers bool) error {
	switch format {
	case outputJSON:
		out := make([]matchDocument, 0, len(matches))
		for _, m := range matches {
			out = append(out, newMatchDocument(m.Document, m.Reason, true))
		}

		return writeJSON(w, out)

	case outputText:
		for i, m := range matches {
			if i > 0 {
				mustN(fmt.Fprintln(w))
			}

			if headers {
				header := fmt.Sprintf("<!-- %s (%s) -->", m.Document.ID, m.Reason)
				mustN(fmt.Fprintln(w, headerStyle.Render(header)))
			}

			mustN(fmt.Fprint(w, m.Document.Body))

			if !strings.HasSuffix(m.Document.Body, "\n") {
				mustN(fmt.Fprintln(w))
			}
		}

		return nil
	}

	return fmt.Errorf("unknown output format %q", format)
}

// writeDocumentList prints a table of documents without bodies.
func writeDocumentList(w io.Writer, docs []*rule.Document, format string) error {
	switch format {
	case outputJSON:
		out := make([]matchDocument, 0, len(docs))
		for _, doc := range docs {
			out = append(out, newMatchDocument(doc, "", false))
		}

		return writeJSON(w, out)

	case outputText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		mustN(fmt.Fprintln(tw, "ID\tAPPLIES\tDESCRIPTION"))

		for _, doc := range docs {
			mustN(fmt.Fprintf(tw, "%s\t%s\t%s\n", doc.ID, describeApplies(doc), doc.Description))
		}

		err := tw.Flush()
		if err != nil {
			return fmt.Errorf("flush table: %w", err)
		}

		return nil
	}

	return fmt.Errorf("unknown output format %q", format)
}

func describeApplies(doc *rule.Document) string {
	switch {
	case doc.AlwaysApply:
		return "always"
	case len(doc.Globs) > 0:
		return strings.Join(doc.Globs, ",")
	default:
		return "manual"
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
