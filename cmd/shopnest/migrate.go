package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/config"
	"github.com/fjod/shopnest/internal/feedback"
)

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the feedback archive schema and store indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.migrate(cmd.Context())
		},
	}
}

func (a *app) migrate(ctx context.Context) error {
	archive, err := feedback.OpenArchive(a.cfg.FeedbackDBPath)
	if err != nil {
		return err
	}
	defer archive.Close()
	if err := archive.Migrate(); err != nil {
		return err
	}
	a.log.Info("feedback archive migrated", zap.String("path", a.cfg.FeedbackDBPath))

	if a.cfg.StoreBackend != config.StoreMongo {
		return nil
	}
	store, err := openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	if ix, ok := store.(indexer); ok {
		if err := ix.CreateIndexes(ctx); err != nil {
			return err
		}
		a.log.Info("mongo indexes created", zap.String("database", a.cfg.MongoDBName))
	}
	return nil
}
