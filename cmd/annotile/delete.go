package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an annotation and its artifacts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		_, annotations, cache, err := buildServices()
		if err != nil {
			fatal("wiring services", err)
		}
		if cache != nil {
			defer cache.Close()
		}

		if err := annotations.Delete(context.Background(), id); err != nil {
			fatal("deleting annotation", err)
		}

		fmt.Printf("Annotation deleted: %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
