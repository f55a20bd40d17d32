package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Render a single card to an image",
	Long: `Render one card from a design template and a record.

Examples:
  # Render a card with a photo
  idmaker card --template front.json --record amina.json --photo amina.jpg -o amina.png

  # Override record fields and the photo framing
  idmaker card --template front.json --set NAME="Amina W." --set CLASS=4E --zoom 1.3 --offset-y -20`,
	Args: cobra.NoArgs,
	RunE: runCard,
}

func init() {
	rootCmd.AddCommand(cardCmd)

	cardCmd.Flags().String("template", "", "Card design template (JSON)")
	cardCmd.Flags().String("record", "", "Record fields (JSON object)")
	cardCmd.Flags().String("photo", "", "Portrait photo")
	cardCmd.Flags().StringSlice("set", nil, "Set a record field (KEY=VALUE, repeatable)")
	cardCmd.Flags().Float64("zoom", 1, "Photo zoom (overrides the record's zoom)")
	cardCmd.Flags().Float64("offset-x", 0, "Photo horizontal pan in pixels")
	cardCmd.Flags().Float64("offset-y", 0, "Photo vertical pan in pixels")
	cardCmd.Flags().StringP("output", "o", "card.png", "Output image (.png or .jpg)")
}

func runCard(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	tmpl, err := readTemplate(cmd)
	if err != nil {
		return err
	}
	rec, err := readRecord(mustGetString(cmd, "record"))
	if err != nil {
		return err
	}
	if err := applySets(rec, mustGetStringSlice(cmd, "set")); err != nil {
		return err
	}

	var photo []byte
	if path := mustGetString(cmd, "photo"); path != "" {
		if photo, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
	}

	card, err := newRenderer(cfg).RenderCard(context.Background(), tmpl, rec, photo, cardAdjustments(cmd, rec))
	if err != nil {
		return fmt.Errorf("failed to render card: %w", err)
	}
	printWarnings(card.Warnings)

	output := mustGetString(cmd, "output")
	if err := writeImage(output, card.Image); err != nil {
		return err
	}
	fmt.Printf("Card written to %s (%dx%d)\n", output, card.Image.Bounds().Dx(), card.Image.Bounds().Dy())
	return nil
}

// cardAdjustments layers the adjustment flags that were set over the
// record's own _adjustments.
func cardAdjustments(cmd *cobra.Command, rec design.Record) design.Adjustments {
	adj := design.ResolveAdjustments(rec)
	flags := cmd.Flags()
	if flags.Changed("zoom") {
		adj.Zoom = mustGetFloat64(cmd, "zoom")
	}
	if flags.Changed("offset-x") {
		adj.OffsetX = mustGetFloat64(cmd, "offset-x")
	}
	if flags.Changed("offset-y") {
		adj.OffsetY = mustGetFloat64(cmd, "offset-y")
	}
	return adj.Normalize()
}

// applySets parses KEY=VALUE pairs into rec.
func applySets(rec design.Record, sets []string) error {
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, expected KEY=VALUE", s)
		}
		rec[key] = value
	}
	return nil
}
