package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sevigo/onecontext/knowledgebase"
	"github.com/sevigo/onecontext/retrievers"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		text     string
		outputK  int
		poolSize int
		fast     bool
		noRerank bool
	)

	queryCmd := &cobra.Command{
		Use:   "query KB_NAME...",
		Short: "Search one or more knowledge bases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" {
				return errors.New("--text is required")
			}

			kbs := make([]*knowledgebase.KnowledgeBase, 0, len(args))
			for _, name := range args {
				kbs = append(kbs, a.client.KnowledgeBase(name))
			}
			retriever := retrievers.New(a.client, kbs)

			opts := []retrievers.QueryOption{
				retrievers.WithOutputK(outputK),
				retrievers.WithRerankPoolSize(poolSize),
				retrievers.WithRerankFast(fast),
			}
			query := retriever.Query
			if noRerank {
				query = retriever.QueryNoRerank
			}

			docs, err := query(cmd.Context(), text, opts...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), docs)
		},
	}

	queryCmd.Flags().StringVarP(&text, "text", "q", "", "query text")
	queryCmd.Flags().IntVarP(&outputK, "top-k", "k", retrievers.DefaultOutputK, "number of documents to return")
	queryCmd.Flags().IntVar(&poolSize, "pool", retrievers.DefaultRerankPoolSize, "rerank candidate pool size")
	queryCmd.Flags().BoolVar(&fast, "fast", retrievers.DefaultRerankFast, "use the fast reranker")
	queryCmd.Flags().BoolVar(&noRerank, "no-rerank", false, "disable reranking")
	return queryCmd
}
