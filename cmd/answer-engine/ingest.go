// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/document"
	"github.com/pdiddy/answer-engine/internal/registry"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest text or Markdown files into the document store",
	Long: `Ingest parses each file into sections, paragraphs, and equations,
annotates paragraphs with extracted entities, and stores the result in the
data directory. Parse failures are recorded per file; the remaining files
are still ingested.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig(cmd)
	ctx := context.Background()

	store, err := registry.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := registry.New(ctx, store)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		id, err := reg.Begin(ctx, path)
		if err != nil {
			return err
		}

		doc, err := document.ParseFile(path)
		if err != nil {
			if failErr := reg.Fail(ctx, id, err); failErr != nil {
				return failErr
			}
			fmt.Printf("failed  %s: %v\n", path, err)
			failed++
			continue
		}

		if err := reg.Complete(ctx, id, doc); err != nil {
			return err
		}
		fmt.Printf("ingested %s (%d paragraphs, %d equations) as %s\n",
			path, doc.ParagraphCount(), len(doc.Equations), id)
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed ingestion", failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
