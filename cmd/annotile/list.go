package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listJSON     bool
	listCategory string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored annotations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, annotations, cache, err := buildServices()
		if err != nil {
			fatal("wiring services", err)
		}
		if cache != nil {
			defer cache.Close()
		}

		records, err := annotations.List(context.Background(), listCategory)
		if err != nil {
			fatal("listing annotations", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(records); err != nil {
				fatal("encoding records", err)
			}
			return
		}

		if len(records) == 0 {
			fmt.Println("No annotations stored.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tZOOM\tSIZE\tVISIBLE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dx%d\t%t\n",
				r.ID, r.Name, r.Category, r.Zoom, r.ImageWidth, r.ImageHeight, r.Visible)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
}
