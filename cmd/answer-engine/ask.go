// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/registry"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a grounded question about an ingested document",
	Long: `Ask runs one question through the answer pipeline against a stored
document. The answer cites the paragraphs and equations that support it; when
the document does not cover the question, the engine answers
"Not defined in the paper" instead of guessing.

With a single ingested document --doc may be omitted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	docID, _ := cmd.Flags().GetString("doc")
	if docID == "" {
		entries := reg.List()
		if len(entries) != 1 {
			return fmt.Errorf("--doc required: %d documents in the store", len(entries))
		}
		docID = entries[0].ID
	}

	doc, err := reg.Document(docID)
	if err != nil {
		return err
	}

	client, err := llm.NewGroqClient(cfg.Model)
	if err != nil {
		return err
	}
	p, err := pipeline.New(client, nil)
	if err != nil {
		return err
	}

	paragraphIDs, _ := cmd.Flags().GetStringSlice("paragraphs")
	debug, _ := cmd.Flags().GetBool("debug")
	compose, _ := cmd.Flags().GetBool("compose")

	answer, err := p.Answer(ctx, doc, pipeline.Request{
		Question:    strings.Join(args, " "),
		EvidenceIDs: paragraphIDs,
		Debug:       debug,
		Compose:     compose,
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	fmt.Println(answer.Answer)
	if len(answer.Citations) > 0 {
		fmt.Printf("citations: %s\n", strings.Join(answer.Citations, ", "))
	}
	fmt.Printf("confidence: %s\n", answer.Confidence)
	if answer.Narrative != "" {
		fmt.Printf("\n%s\n", answer.Narrative)
	}
	if answer.Debug != nil {
		fmt.Printf("\nplanner: %s\nverifier: %s\n", answer.Debug.PlannerReason, answer.Debug.VerifierReason)
		if answer.Debug.ComposerReason != "" {
			fmt.Printf("composer: %s\n", answer.Debug.ComposerReason)
		}
		for _, g := range answer.Debug.EvidenceLinks {
			fmt.Printf("linked: %s (variables: %s; concepts: %s)\n",
				strings.Join(g.SourceIDs, ", "),
				strings.Join(g.SharedVariables, ", "),
				strings.Join(g.SharedConcepts, ", "))
		}
	}
	return nil
}

func init() {
	askCmd.Flags().String("doc", "", "document ID to query")
	askCmd.Flags().StringSlice("paragraphs", nil, "explicit evidence paragraph IDs (caps confidence at low)")
	askCmd.Flags().Bool("debug", false, "include planner and verifier reasoning")
	askCmd.Flags().Bool("compose", false, "also compose a sentence-cited narrative")
	askCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}
