package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove orphaned capture artifacts",
	Long: `Gc removes rasters and sidecars that no registry record references.
Orphans appear when a capture persists its image but fails before the
registry write, or when artifact removal after a delete is interrupted.

Run gc while the server is idle; a capture in flight between its image
write and registry write looks like an orphan.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, annotations, cache, err := buildServices()
		if err != nil {
			fatal("wiring services", err)
		}
		if cache != nil {
			defer cache.Close()
		}

		if gcDryRun {
			orphans, err := annotations.Orphans(context.Background())
			if err != nil {
				fatal("scanning for orphans", err)
			}
			for _, id := range orphans {
				fmt.Println(id)
			}
			fmt.Printf("%d orphan(s) found (dry run, nothing removed)\n", len(orphans))
			return
		}

		removed, err := annotations.CollectOrphans(context.Background())
		for _, id := range removed {
			fmt.Println(id)
		}
		if err != nil {
			fatal("collecting orphans", err)
		}
		fmt.Printf("%d orphan(s) removed\n", len(removed))
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "List orphans without removing them")
}
