// heartystore-init creates a fresh, empty store.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"heartystore/internal/config"
	"heartystore/internal/engine"
)

func main() {
	var basePath string

	root := &cobra.Command{
		Use:           "heartystore-init <store_id>",
		Short:         "Create a new store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid store id %q: %w", args[0], err)
			}

			cfg := config.Load()
			if basePath != "" {
				cfg.BasePath = basePath
			}
			config.ApplyLogLevel(cfg)

			if err := engine.Init(cfg.BasePath, uint32(id)); err != nil {
				return err
			}

			fmt.Printf("Successfully initialized store %d\n", id)
			return nil
		},
	}
	root.Flags().StringVar(&basePath, "base", "", "base storage path (overrides HEARTYSTORE_BASE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
