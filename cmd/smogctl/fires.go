package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
)

var firesInput string

var firesCmd = &cobra.Command{
	Use:   "fires",
	Short: "Attribute FIRMS fire detections to districts",
	Long: `Read a JSON array of FIRMS detections and report the count and FRP that
fall inside each district's box (FIRE_BOX_DEGREES around the HQ).
Low-confidence detections are dropped.

Examples:
  smogctl fires --input firms_24h.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, err := wantJSON()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ix, _, err := loadIndex(cfg)
		if err != nil {
			return err
		}

		in, err := openInput(firesInput)
		if err != nil {
			return err
		}
		defer in.Close()
		fires, err := readFires(in)
		if err != nil {
			return err
		}

		assigned := geo.AssignFires(ix, fires, cfg.FireBoxDegrees)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), assigned)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%d detections kept, %d low confidence dropped, provincial FRP %.1f MW\n\n",
			assigned.Kept, assigned.LowConfidence, assigned.ProvincialFRP)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DISTRICT\tFIRES\tFRP MW")
		for _, id := range ix.IDs() {
			load := assigned.Districts[id]
			if load.Count == 0 {
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%.1f\n", id, load.Count, load.FRP)
		}
		return tw.Flush()
	},
}

func init() {
	firesCmd.Flags().StringVarP(&firesInput, "input", "i", "-", "FIRMS detections file, - for stdin")
}
