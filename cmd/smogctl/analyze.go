package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/attribution"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

var (
	analyzeInput     string
	analyzeFrom      string
	analyzeTo        string
	analyzeDistricts []string
	analyzeTop       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the correlation analysis over exported collector records",
	Long: `Read hourly collector records (a JSON array or JSON lines), roll them up to
daily values and print the correlation report.

Examples:
  smogctl analyze --input nov.jsonl
  smogctl analyze --input nov.jsonl --from 2024-11-01 --to 2024-11-15 --district lahore
  cat nov.jsonl | smogctl analyze --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "-", "Collector records file, - for stdin")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "First day to analyze (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "Last day to analyze (YYYY-MM-DD)")
	analyzeCmd.Flags().StringSliceVarP(&analyzeDistricts, "district", "d", nil, "Limit per-district sections (repeatable)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 3, "Upwind sources to print per district in text output")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	asJSON, err := wantJSON()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, registry, err := loadIndex(cfg)
	if err != nil {
		return err
	}
	engine, err := analysis.NewEngine(registry, cfg.Analysis())
	if err != nil {
		return err
	}

	period, err := parsePeriod(analyzeFrom, analyzeTo)
	if err != nil {
		return err
	}

	in, err := openInput(analyzeInput)
	if err != nil {
		return err
	}
	defer in.Close()
	obs, err := readCollectorRecords(in)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("no observations in %s", analyzeInput)
	}

	report, err := engine.Analyze(cmd.Context(), analysis.Request{
		Observations: obs,
		Period:       period,
		Districts:    analyzeDistricts,
	})
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return printReport(cmd.OutOrStdout(), report, analyzeTop)
}

// parsePeriod builds a Period from optional day bounds. With neither bound
// set the zero Period is returned and the engine spans the observations.
func parsePeriod(from, to string) (domain.Period, error) {
	if from == "" && to == "" {
		return domain.Period{}, nil
	}
	if from == "" || to == "" {
		return domain.Period{}, fmt.Errorf("--from and --to must be given together")
	}
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return domain.Period{}, fmt.Errorf("invalid --from: %w", err)
	}
	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return domain.Period{}, fmt.Errorf("invalid --to: %w", err)
	}
	if t.Before(f) {
		return domain.Period{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return domain.NewPeriod(f, t), nil
}

func printReport(w io.Writer, r *analysis.Report, top int) error {
	fmt.Fprintf(w, "Report %s\n", r.ID)
	fmt.Fprintf(w, "Period %s to %s, %d days\n\n",
		r.Period.From.Format(time.DateOnly), r.Period.To.Format(time.DateOnly), r.Period.Days())

	fmt.Fprintln(w, "Fire to PM2.5 correlation")
	for _, s := range r.Summaries {
		fmt.Fprintf(w, "  %s\n", s)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DISTRICT\tWIND FROM\tRATIO BAND\tTOP SOURCES")
	for i, id := range r.Districts {
		wind := "-"
		if deg, ok := r.WindRoses[i].DominantDirection(); ok {
			wind = fmt.Sprintf("%.0f°", deg)
		}
		band := string(r.Ratios[i].Summary.Prevailing)
		if band == "" {
			band = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, wind, band, topSources(r.Attributions[i].Scores, top))
	}
	return tw.Flush()
}

func topSources(scores []attribution.Score, n int) string {
	var b strings.Builder
	for i, sc := range scores {
		if i == n || sc.Plausibility == 0 {
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%.2f)", sc.SourceDistrictID, sc.Plausibility)
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
