package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/elevated-ai-works/assistant/internal/extract"
	"github.com/elevated-ai-works/assistant/internal/model"
)

var (
	extractFile   string
	extractGate   string
	extractFormat string
)

// readTranscript decodes a JSON array of messages, or an object with a
// "messages" field as posted to the proxy.
func readTranscript(r io.Reader) ([]model.Message, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read transcript")
	}

	var msgs []model.Message
	if err := json.Unmarshal(raw, &msgs); err == nil {
		return msgs, nil
	}
	var req model.AssistantRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, eris.Wrap(err, "parse transcript")
	}
	return req.Messages, nil
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the lead extractor over a chat transcript",
	Long:  "Reads a JSON transcript from --file (or stdin with -) and prints the lead the proxy would relay.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		gateName := extractGate
		if gateName == "" {
			gateName = cfg.Assistant.LeadGate
		}
		gate, err := extract.ParseGate(gateName)
		if err != nil {
			return err
		}

		in := os.Stdin
		if extractFile != "-" {
			f, err := os.Open(extractFile)
			if err != nil {
				return eris.Wrapf(err, "open %s", extractFile)
			}
			defer f.Close() //nolint:errcheck
			in = f
		}

		msgs, err := readTranscript(in)
		if err != nil {
			return err
		}

		lead, ok := extract.New(extract.WithGate(gate)).Extract(msgs)
		if !ok {
			fmt.Fprintf(os.Stderr, "No lead found (gate %s).\n", gate)
			return nil
		}
		return writeStructured(os.Stdout, extractFormat, lead)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "-", "transcript JSON file, - for stdin")
	extractCmd.Flags().StringVar(&extractGate, "gate", "", "lead gate: email_only, email_and_intent or signal_or_intent (default from config)")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(extractCmd)
}
