package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LavishGent/linernotes/internal/server"
)

var (
	enrichJSON    bool
	enrichTimeout time.Duration
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <name>",
	Short: "Fetch the bio and fun facts for an entity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichJSON, "json", false, "print the result as JSON")
	enrichCmd.Flags().DurationVar(&enrichTimeout, "timeout", 30*time.Second, "overall deadline for the call")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if enrichTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, enrichTimeout)
		defer cancel()
	}

	name := strings.Join(args, " ")
	res, err := s.client.Enrich(ctx, name)
	if err != nil {
		return err
	}
	report := server.NewReport(name, s.client.Slots(), res)

	out := cmd.OutOrStdout()
	if enrichJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.EntityID != "" {
		_, _ = fmt.Fprintf(out, "%s (%s)\n\n", report.Name, report.EntityID)
	} else {
		_, _ = fmt.Fprintf(out, "%s\n\n", report.Name)
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "SLOT\tSTATUS\tCONTENT")
	for _, slot := range report.Slots {
		if slot.Error != "" {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", slot.Slot, slot.Error, slot.Message)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", slot.Slot, "ok", slot.Content)
	}
	return w.Flush()
}
