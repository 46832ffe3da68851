package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/insight-cli/internal/fetcher"
	"github.com/sells-group/insight-cli/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workbook.xlsx>",
	Short: "Check workbook structure without processing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wb, err := fetcher.ReadWorkbook(cmd.Context(), args[0], ingest.RequiredSheets)
		if err != nil {
			return err
		}

		if verr := ingest.Validate(wb); verr != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(verr); err != nil {
				return err
			}
			os.Exit(1)
		}

		fmt.Println("Workbook structure OK")
		return nil
	},
}

func init() { rootCmd.AddCommand(validateCmd) }
