package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elevated-ai-works/assistant/internal/intent"
	"github.com/elevated-ai-works/assistant/internal/model"
)

var classifyFormat string

// classification is what the widget would decide for one message.
type classification struct {
	Text         string         `json:"text" yaml:"text"`
	QuoteIntent  bool           `json:"quoteIntent" yaml:"quote_intent"`
	Category     model.Category `json:"category,omitempty" yaml:"category,omitempty"`
	PersonalInfo bool           `json:"personalInfo" yaml:"personal_info"`
	ExactPrice   bool           `json:"exactPrice" yaml:"exact_price"`
	Reply        *model.Message `json:"reply,omitempty" yaml:"reply,omitempty"`
}

func classifyText(g *intent.Guard, text string) classification {
	c := classification{
		Text:         text,
		QuoteIntent:  intent.HasQuoteIntent(text),
		PersonalInfo: g.HasPersonalInfo(text),
		ExactPrice:   g.IsExactPriceRequest(text),
	}
	if cat, ok := intent.ClassifyCategory(text); ok {
		c.Category = cat
		if c.QuoteIntent && !c.PersonalInfo {
			if msg, ok := intent.QuoteResponse(cat, c.ExactPrice); ok {
				c.Reply = &msg
			}
		}
	}
	return c
}

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Show how the chat widget classifies a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := classifyText(guardFromConfig(cfg.Guard), strings.Join(args, " "))
		return writeStructured(os.Stdout, classifyFormat, c)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(classifyCmd)
}
