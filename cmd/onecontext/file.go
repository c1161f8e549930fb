package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFileCmd(a *app) *cobra.Command {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect and download uploaded files",
	}

	var dir string
	downloadCmd := &cobra.Command{
		Use:   "download FILE_ID",
		Short: "Download a file into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.client.DownloadFile(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	downloadCmd.Flags().StringVarP(&dir, "dir", "d", ".", "destination directory")

	fileCmd.AddCommand(
		&cobra.Command{
			Use:   "metadata FILE_ID",
			Short: "Show the metadata of a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				meta, err := a.client.GetFileMetadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), meta)
			},
		},
		downloadCmd,
	)
	return fileCmd
}
