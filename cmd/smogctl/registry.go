package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

var neighborsK int

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "List registered districts",
	Args:  cobra.NoArgs,
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

		ids := ix.IDs()
		if asJSON {
			out := make([]domain.DistrictLocation, 0, len(ids))
			for _, id := range ids {
				loc, _ := ix.Location(id)
				out = append(out, loc)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tLAT\tLON")
		for _, id := range ids {
			loc, _ := ix.Location(id)
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", loc.DistrictID, loc.Name, loc.Latitude, loc.Longitude)
		}
		return tw.Flush()
	},
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <district>",
	Short: "List the nearest districts with distance and bearing",
	Long: `List the k nearest districts to a district, nearest first.

Examples:
  smogctl neighbors lahore
  smogctl neighbors multan --k 8 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		neighbors, err := ix.Neighbors(args[0], neighborsK)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), neighbors)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DISTRICT\tDISTANCE KM\tBEARING")
		for _, n := range neighbors {
			bearing, _ := ix.Bearing(args[0], n.DistrictID)
			fmt.Fprintf(tw, "%s\t%.1f\t%.0f°\n", n.DistrictID, n.DistanceKM, bearing)
		}
		return tw.Flush()
	},
}

var distanceCmd = &cobra.Command{
	Use:   "distance <district> <district>",
	Short: "Great-circle distance and bearing between two districts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ix, _, err := loadIndex(cfg)
		if err != nil {
			return err
		}

		km, err := ix.Distance(args[0], args[1])
		if err != nil {
			return err
		}
		bearing, err := ix.Bearing(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %.1f km, bearing %.0f°\n", args[0], args[1], km, bearing)
		return nil
	},
}

func init() {
	neighborsCmd.Flags().IntVar(&neighborsK, "k", 0, "Number of neighbors (default: NEIGHBOR_K)")
}
