package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the geocode cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show geocode cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.CacheStats(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

var cachePurgeDays int

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cache entries unused for longer than --older-than days",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		cutoff := time.Now().AddDate(0, 0, -cachePurgeDays)
		deleted, err := st.PurgeCache(cmd.Context(), cutoff)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d cache entries unused since %s\n", deleted, cutoff.Format("2006-01-02"))
		return nil
	},
}

var uploadsLimit int

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List recorded workbook uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListUploads(cmd.Context(), uploadsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No uploads recorded")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %s  tx=%d cust=%d prod=%d\n",
				e.UploadedAt.Format(time.RFC3339), e.ID, e.Filename,
				e.TransactionsCount, e.CustomersCount, e.ProductsCount)
		}
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().IntVar(&cachePurgeDays, "older-than", 90, "age threshold in days")
	uploadsCmd.Flags().IntVar(&uploadsLimit, "limit", 20, "max entries to list")
	cacheCmd.AddCommand(cacheStatusCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd, uploadsCmd)
}
