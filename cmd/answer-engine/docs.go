// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/registry"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List registered documents",
	Long: `Docs lists every document in the store with its status and size.
Use --search to run a full-text query over all stored paragraphs.`,
	RunE: runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig(cmd)
	ctx := context.Background()

	store, err := registry.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if query, _ := cmd.Flags().GetString("search"); query != "" {
		return runDocsSearch(ctx, store, query)
	}

	reg, err := registry.New(ctx, store)
	if err != nil {
		return err
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := reg.ExportYAML(f); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", exportPath)
		return nil
	}

	entries := reg.List()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-9s  %-10s  %s\n", "ID", "Status", "Paragraphs", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, e := range entries {
		title := e.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-9s  %-10d  %s\n", e.ID, e.Status, e.ParagraphCount, title)
	}
	fmt.Fprintf(os.Stdout, "\n%d document(s)\n", len(entries))
	return nil
}

func runDocsSearch(ctx context.Context, store *registry.Store, query string) error {
	hits, err := store.SearchParagraphs(ctx, query, 20)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	for i, h := range hits {
		fmt.Fprintf(os.Stdout, "%d. [%s %s] (%s) %s\n", i+1, h.DocID, h.ParagraphID, h.Section, h.Snippet)
	}
	return nil
}

func init() {
	docsCmd.Flags().String("search", "", "full-text search query over stored paragraphs")
	docsCmd.Flags().String("export", "", "write all documents to a YAML file")
	docsCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(docsCmd)
}
