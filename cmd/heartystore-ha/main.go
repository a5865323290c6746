// heartystore-ha groups two or more stores into an HA parity group.
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
		Use:           "heartystore-ha <id1> <id2> [id3 ...]",
		Short:         "Create an HA parity group from two or more stores",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint32, len(args))
			for i, a := range args {
				id, err := strconv.ParseUint(a, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid store id %q: %w", a, err)
				}
				ids[i] = uint32(id)
			}

			cfg := config.Load()
			if basePath != "" {
				cfg.BasePath = basePath
			}
			config.ApplyLogLevel(cfg)

			groupID, err := engine.HACreate(cfg.BasePath, ids)
			if err != nil {
				return err
			}

			fmt.Printf("Successfully created HA group with ID %d\n", groupID)
			return nil
		},
	}
	root.Flags().StringVar(&basePath, "base", "", "base storage path (overrides HEARTYSTORE_BASE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
