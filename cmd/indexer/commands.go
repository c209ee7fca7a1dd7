package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/indexer"
	"github.com/wolfman30/salesforce-ai-backend/internal/vectorstore"
)

const indexMetric = "cosine"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "indexer",
		Short:         "Index Salesforce metadata into the vector store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIndexCmd(a), newEnsureIndexCmd(a))
	return root
}

type indexFlags struct {
	source    string
	objects   []string
	batchSize int
	dryRun    bool
}

func newIndexCmd(a *app) *cobra.Command {
	flags := indexFlags{}
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed metadata chunks and upsert them in batches",
		Long: `Reads sObject describe JSON files, validation rules, flows and Apex
triggers from the sfdx source tree, embeds each chunk and upserts the
vectors into the configured store.

Flow and trigger chunks use the file name without its metadata suffix as
their id, for example flow-Lead_Assignment and trigger-LeadTrigger. Indexes
built with ids that kept part of the suffix (flow-Lead_Assignment.flow-meta,
trigger-LeadTrigger.trigger-meta) hold stale duplicates after a re-run;
delete those vectors or rebuild the index from scratch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runIndex(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.source, "source", a.cfg.IndexerSourcePath, "sfdx source root")
	cmd.Flags().StringSliceVar(&flags.objects, "objects", a.cfg.IndexerObjectFiles, "sObject describe JSON files")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", a.cfg.IndexerBatchSize, "chunks per upsert batch")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print chunks without embedding or upserting")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, flags indexFlags) error {
	ctx := cmd.Context()
	if flags.batchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive, got %d", flags.batchSize)
	}

	chunks, err := indexer.Collect(indexer.Source{BasePath: flags.source, ObjectFiles: flags.objects}, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d total chunks to process.\n", len(chunks))

	if flags.dryRun {
		for _, c := range chunks {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Text)
		}
		return nil
	}

	client, err := a.newLLM(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	backend, err := a.newBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	manifests, err := a.newManifest(ctx)
	if err != nil {
		return fmt.Errorf("manifest store: %w", err)
	}

	started := time.Now().UTC()
	ix := indexer.New(client, backend.Store, indexer.Options{
		BatchSize: flags.batchSize,
		EmbedRPS:  a.cfg.IndexerEmbedRPS,
		Logger:    a.logger.WithComponent("indexer"),
	})
	report, runErr := ix.Run(ctx, chunks)

	manifest := &indexer.Manifest{
		RunID:      uuid.NewString(),
		Index:      a.cfg.PineconeIndexName,
		Backend:    a.cfg.VectorStore,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Report:     report,
		Chunks:     chunks,
	}
	if runErr != nil {
		manifest.Error = runErr.Error()
	}
	if key, err := manifests.Write(ctx, manifest); err != nil {
		a.logger.Warn("failed to write index manifest", "error", err)
	} else if key != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to s3://%s/%s\n", a.cfg.IndexManifestBucket, key)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d, skipped %d, upserted %d vectors in %d batches.\n",
		report.Embedded, report.Skipped, report.Upserted, report.Batches)
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Processing complete!")
	return nil
}

func newEnsureIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-index",
		Short: "Create the vector index or schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEnsureIndex(cmd)
		},
	}
}

func (a *app) runEnsureIndex(cmd *cobra.Command) error {
	ctx := cmd.Context()

	switch a.cfg.VectorStore {
	case appconfig.VectorStorePostgres:
		applied, err := a.migrateUp(a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if applied {
			fmt.Fprintln(cmd.OutOrStdout(), "Applied pgvector migrations.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "pgvector schema is up to date.")
		}
		return nil
	case appconfig.VectorStoreRedis, appconfig.VectorStoreMemory:
		fmt.Fprintf(cmd.OutOrStdout(), "Vector store %q needs no provisioning.\n", a.cfg.VectorStore)
		return nil
	}

	backend, err := a.newBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()
	if backend.Manager == nil {
		return errors.New("vector store cannot provision its own index")
	}

	spec := vectorstore.IndexSpec{
		Name:      a.cfg.PineconeIndexName,
		Dimension: a.cfg.EmbeddingDimension,
		Metric:    indexMetric,
	}
	created, err := backend.Manager.EnsureIndex(ctx, spec)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created index %s (dimension %d, %s).\n", spec.Name, spec.Dimension, spec.Metric)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Index %s already exists.\n", spec.Name)
	}
	return nil
}
