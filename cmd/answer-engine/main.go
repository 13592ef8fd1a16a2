// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the answer-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the answer-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "answer-engine",
	Short: "Grounded question answering over ingested documents",
	Long: `answer-engine ingests plain-text or Markdown documents and answers
questions about them using only the ingested evidence. Every answer carries
citations back to the source paragraphs and equations, and a verifier derives
the reported confidence; when the evidence cannot support an answer, the
engine refuses instead of guessing.

Run "serve" for the HTTP API, "ingest" to load documents from the command
line, and "ask" for one-shot questions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./answer-engine.yaml or ~/.config/answer-engine/config.yaml)")
	rootCmd.PersistentFlags().String("api-key", "", "model API key (default: .secrets/groq-api-key)")
	rootCmd.PersistentFlags().String("model", "", "model identifier")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the document database")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("answer-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "answer-engine"))
		}
	}

	viper.SetEnvPrefix("ANSWER_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadPipelineConfig assembles configuration from flags, the config file,
// the environment, and the secrets directory, in that precedence order.
func loadPipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg := types.PipelineConfig{
		Model: types.ModelConfig{
			Model:      firstNonEmpty(model, viper.GetString("model.model")),
			APIKey:     secretDefault("groq-api-key", firstNonEmpty(apiKey, viper.GetString("model.api_key"))),
			BaseURL:    firstNonEmpty(loadedSecrets["model-base-url"], viper.GetString("model.base_url")),
			Timeout:    viper.GetDuration("model.timeout"),
			MaxRetries: viper.GetInt("model.max_retries"),
		},
		Store: types.StoreConfig{
			DataDir: firstNonEmpty(dataDir, viper.GetString("store.data_dir")),
		},
		Server: types.ServerConfig{
			Addr:              viper.GetString("server.addr"),
			MaxQuestionLength: viper.GetInt("server.max_question_length"),
			ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
		},
	}
	return cfg.WithDefaults()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
