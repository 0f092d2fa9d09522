package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
)

// writeStructured renders v as json or yaml.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// formatLeadsList writes a table of leads.
func formatLeadsList(w io.Writer, leads []model.LeadRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tNAME\tEMAIL\tSERVICE\tBUDGET\tRELAY")
	for _, l := range leads {
		id := l.ID
		if len(id) > 8 {
			id = id[:8]
		}
		relay := string(l.RelayStatus)
		if l.RelayError != "" {
			relay += " (" + truncate(l.RelayError, 40) + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			l.CreatedAt.Format("2006-01-02 15:04"),
			dash(l.Name),
			l.Email,
			dash(string(l.Service)),
			dash(l.Budget),
			relay,
		)
	}
	tw.Flush() //nolint:errcheck
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// guardFromConfig builds the personal-info guard with configured overrides.
func guardFromConfig(c config.GuardConfig) *intent.Guard {
	var opts []intent.GuardOption
	if c.MinPhoneDigits > 0 {
		opts = append(opts, intent.WithMinPhoneDigits(c.MinPhoneDigits))
	}
	if len(c.AddressSuffixes) > 0 {
		opts = append(opts, intent.WithAddressSuffixes(c.AddressSuffixes))
	}
	if len(c.ExactPriceKeywords) > 0 {
		opts = append(opts, intent.WithExactPriceKeywords(c.ExactPriceKeywords))
	}
	return intent.NewGuard(opts...)
}
