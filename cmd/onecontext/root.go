package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sevigo/onecontext/api"
	"github.com/sevigo/onecontext/config"
	"github.com/sevigo/onecontext/knowledgebase"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

// app carries the state shared by all subcommands. It is populated in the
// root command's PersistentPreRunE.
type app struct {
	configPath string
	baseURL    string
	output     string

	logger *slog.Logger
	client *knowledgebase.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "onecontext",
		Short:         "Manage knowledge bases and run retrieval queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputYAML, "output format: yaml or json")

	rootCmd.AddCommand(
		newKnowledgeBaseCmd(a),
		newQueryCmd(a),
		newFileCmd(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.output != outputYAML && a.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", a.output)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	apiClient, err := api.NewClient(cfg.ClientOptions(a.logger)...)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	a.client = knowledgebase.NewFromAPI(apiClient, knowledgebase.WithLogger(a.logger))
	return nil
}

func (a *app) print(w io.Writer, v any) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
