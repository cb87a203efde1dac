package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

type exploreOutput struct {
	Steps []explorer.Step  `json:"steps"`
	API   explorer.APIInfo `json:"api"`
}

func newExploreCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "explore <query...>",
		Short: "Run one exploration and print the result",
		Example: `  webapi-explorer explore websocket
  webapi-explorer explore web audio --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("query required")
			}
			appInstance.Logger().Info("starting exploration", zap.String("query", query))

			steps := appInstance.Explorer().Explore(cmd.Context(), query)
			if err := cmd.Context().Err(); err != nil {
				return fmt.Errorf("exploration interrupted: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(exploreOutput{Steps: steps, API: explorer.Assemble(steps)})
			}
			return renderText(cmd.OutOrStdout(), steps)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the steps and assembled API record as JSON")
	return cmd
}

// renderText prints a step table followed by the assembled record.
func renderText(w io.Writer, steps []explorer.Step) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, step := range steps {
		detail := ""
		if step.Status == explorer.StatusError {
			detail = step.Error
		}
		fmt.Fprintf(tw, "%d.\t%s\t%s\t%dms\t%s\n", step.ID, step.Title, step.Status, step.DurationMs, detail)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write steps: %w", err)
	}

	info := explorer.Assemble(steps)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", info.Name)
	if info.Description != "" {
		fmt.Fprintf(&b, "  %s\n", info.Description)
	}
	if info.DocURL != "" {
		fmt.Fprintf(&b, "  docs: %s\n", info.DocURL)
	}

	b.WriteString("\nBrowser support\n")
	support := info.BrowserSupport.ByBrowser()
	for _, browser := range explorer.Browsers {
		s := support[browser]
		if s.Status == "" {
			continue
		}
		fmt.Fprintf(&b, "  %-8s %-6s %s\n", browser, s.Version, s.Status)
	}

	b.WriteString("\nExplainer\n")
	if info.Explainer == nil {
		b.WriteString("  none found\n")
	} else {
		fmt.Fprintf(&b, "  %s\n  %s\n", info.Explainer.Title, info.Explainer.URL)
	}

	b.WriteString("\nOpen issues\n")
	for _, issue := range info.Issues {
		fmt.Fprintf(&b, "  #%d %s (%s)\n", issue.Number, issue.Title, issue.URL)
	}

	b.WriteString("\nEngine bugs\n")
	for _, bug := range info.Bugs {
		fmt.Fprintf(&b, "  %s [%s] %s\n", bug.ID, bug.Priority, bug.Title)
	}

	if info.Status.Summary != "" {
		fmt.Fprintf(&b, "\nStatus\n  %s\n", info.Status.Summary)
	}
	if info.FuturePrediction != "" {
		fmt.Fprintf(&b, "\nOutlook\n  %s\n", info.FuturePrediction)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
