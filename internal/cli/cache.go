package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the enrichment cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheSweep,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")
	cacheCmd.AddCommand(cacheStatsCmd, cacheSweepCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	stats := s.client.CacheStats()
	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "substrate\t%s\n", stats.Substrate)
	_, _ = fmt.Fprintf(w, "entries\t%d / %d\n", stats.TotalEntries, stats.MaxEntries)
	_, _ = fmt.Fprintf(w, "expired\t%d\n", stats.ExpiredEntries)
	_, _ = fmt.Fprintf(w, "hits\t%d\n", stats.Hits)
	_, _ = fmt.Fprintf(w, "misses\t%d\n", stats.Misses)
	_, _ = fmt.Fprintf(w, "evictions\t%d\n", stats.Evictions)
	return w.Flush()
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	removed, err := s.client.ClearExpired(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	before := s.client.CacheStats().TotalEntries
	if err := s.client.ClearCache(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d entries from %s\n", before, s.client.CacheStats().Substrate)
	return nil
}
