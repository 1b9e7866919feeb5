package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/noteflix/internal/jobs"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage source documents and images",
	}

	var owner string
	addCmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Register a PDF or image as an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			asset, err := a.jobs.AddAsset(cmd.Context(), args[0], owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %s (%s) registered for %s\n", asset.ID, asset.Kind, asset.Owner)
			return nil
		},
	}
	addCmd.Flags().StringVar(&owner, "owner", jobs.DefaultOwner, "Owner of the asset")

	assetsCmd.AddCommand(addCmd)
	return assetsCmd
}
