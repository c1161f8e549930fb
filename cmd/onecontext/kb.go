package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sevigo/onecontext/schema"
)

const defaultUploadConcurrency = 4

func newKnowledgeBaseCmd(a *app) *cobra.Command {
	kbCmd := &cobra.Command{
		Use:     "kb",
		Aliases: []string{"knowledge-base"},
		Short:   "Manage knowledge bases",
	}

	kbCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all knowledge bases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				kbs, err := a.client.ListKnowledgeBases(cmd.Context())
				if err != nil {
					return err
				}
				infos := make([]schema.KnowledgeBaseInfo, 0, len(kbs))
				for _, kb := range kbs {
					infos = append(infos, schema.KnowledgeBaseInfo{Name: kb.Name(), ID: kb.ID(), SyncStatus: kb.SyncStatus()})
				}
				return a.print(cmd.OutOrStdout(), infos)
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a knowledge base",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.client.KnowledgeBase(args[0]).Create(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a knowledge base",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.client.KnowledgeBase(args[0]).Delete(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "info NAME",
			Short: "Show the ID and sync status of a knowledge base",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kb := a.client.KnowledgeBase(args[0])
				synced, err := kb.IsSynced(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), struct {
					schema.KnowledgeBaseInfo `yaml:",inline"`
					Synced                   bool `json:"synced" yaml:"synced"`
				}{
					KnowledgeBaseInfo: schema.KnowledgeBaseInfo{Name: kb.Name(), ID: kb.ID(), SyncStatus: kb.SyncStatus()},
					Synced:            synced,
				})
			},
		},
		&cobra.Command{
			Use:   "files NAME",
			Short: "List the files of a knowledge base",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				files, err := a.client.KnowledgeBase(args[0]).ListFiles(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), files)
			},
		},
		newUploadCmd(a),
	)
	return kbCmd
}

func newUploadCmd(a *app) *cobra.Command {
	var concurrency int

	uploadCmd := &cobra.Command{
		Use:   "upload NAME PATH...",
		Short: "Upload one or more files to a knowledge base",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
			}
			kb := a.client.KnowledgeBase(args[0])

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for _, path := range args[1:] {
				g.Go(func() error {
					return kb.UploadFile(ctx, path)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d file(s) to %s\n", len(args)-1, kb.Name())
			return nil
		},
	}

	uploadCmd.Flags().IntVarP(&concurrency, "concurrency", "c", defaultUploadConcurrency, "maximum parallel uploads")
	return uploadCmd
}
