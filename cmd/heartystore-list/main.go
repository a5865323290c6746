// heartystore-list prints one summary line per store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heartystore/internal/config"
	"heartystore/internal/engine"
)

func main() {
	var basePath string

	root := &cobra.Command{
		Use:           "heartystore-list",
		Short:         "List every store and its status",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if basePath != "" {
				cfg.BasePath = basePath
			}
			config.ApplyLogLevel(cfg)

			entries, err := engine.List(cfg.BasePath)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No stores found")
				return nil
			}
			for _, e := range entries {
				fmt.Println(e.String())
			}
			return nil
		},
	}
	root.Flags().StringVar(&basePath, "base", "", "base storage path (overrides HEARTYSTORE_BASE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
