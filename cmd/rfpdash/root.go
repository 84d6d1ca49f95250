package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rfpdash/internal/config"
	"rfpdash/internal/gateway"
	"rfpdash/internal/logging"
	"rfpdash/internal/storage"
	"rfpdash/internal/store"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// cli carries the flags and the lazily opened resources shared by all commands.
type cli struct {
	output string

	cfg    config.Config
	logger *zap.Logger
	db     *storage.DB
	files  *store.FilePersister
	store  *store.Store
	client *gateway.Client
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:           "rfpdash",
		Short:         "RFP Platform client: pipeline runs, pricing, technical and sales views",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch c.output {
			case outputTable, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output %q (table|json|yaml)", c.output)
			}
			return c.open()
		},
	}
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "output format: table|json|yaml")

	root.AddCommand(
		c.rfpsCmd(),
		c.pipelineCmd(),
		c.technicalCmd(),
		c.viewCmd(),
		c.exportCmd(),
		c.insightsCmd(),
		c.watchCmd(),
	)
	return root, c
}

func (c *cli) open() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Require("RFP_API_URL", cfg.APIBaseURL); err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.logger = logger

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	c.db = db

	var persister store.Persister = db
	if cfg.StateBackend == config.BackendFile {
		c.files = store.NewFilePersister(cfg.StateDir)
		persister = c.files
	}
	c.store = store.Open(persister, logger)
	c.client = gateway.NewClient(cfg, logger)
	return nil
}

func (c *cli) close() {
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
