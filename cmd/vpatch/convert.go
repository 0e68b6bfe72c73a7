package main

import (
	"github.com/spf13/cobra"
)

func convertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert SRC DST",
		Short: "Copy a snapshot, converting between JSON and binary",
		Long: `Read the snapshot at SRC and write it to DST. Each side's format
follows its extension: .bin is the protocol encoding, anything else JSON.

Examples:
  vpatch convert home.json home.bin
  vpatch convert home.bin s3://snapshots/home.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.loadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.saveSnapshot(cmd.Context(), args[1], v); err != nil {
				return err
			}
			a.logger.Info("snapshot converted", "src", args[0], "dst", args[1])
			return nil
		},
	}
}
