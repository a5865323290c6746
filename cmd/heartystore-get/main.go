// heartystore-get writes an object's bytes to stdout.
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
		Use:           "heartystore-get <store_id> <object_id>",
		Short:         "Read an object's bytes to stdout",
		Args:          cobra.ExactArgs(2),
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

			data, err := engine.Get(cfg.BasePath, uint32(id), args[1])
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(data)
			return err
		},
	}
	root.Flags().StringVar(&basePath, "base", "", "base storage path (overrides HEARTYSTORE_BASE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
