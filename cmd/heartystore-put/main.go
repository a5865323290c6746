// heartystore-put writes the contents of a file into a store as a new
// object.
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
		Use:           "heartystore-put <store_id> <path>",
		Short:         "Put a file's contents into a store as a new object",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid store id %q: %w", args[0], err)
			}

			payload, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			cfg := config.Load()
			if basePath != "" {
				cfg.BasePath = basePath
			}
			config.ApplyLogLevel(cfg)

			oid, err := engine.Put(cfg.BasePath, uint32(id), payload)
			if err != nil {
				return err
			}

			fmt.Printf("Successfully put object id %s into %d\n", oid, id)
			return nil
		},
	}
	root.Flags().StringVar(&basePath, "base", "", "base storage path (overrides HEARTYSTORE_BASE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
