package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/extract"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"github.com/liliang-cn/captainclaw/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitDBCmd(load loader) *cobra.Command {
	var skipSample bool

	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema and a sample project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := repository.NewDB(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("Database initialized", zap.String("path", cfg.Database.Path))

			if skipSample {
				return nil
			}

			projects := service.NewProjectService(
				repository.NewProjectRepository(db),
				repository.NewConversationRepository(db),
				repository.NewFileRepository(db),
				nil,
				logger,
			)
			project, err := projects.CreateProject(cmd.Context(), &domain.CreateProjectRequest{
				Name:         "Sample Project",
				Description:  "Test project to get started",
				SystemPrompt: "You are a helpful AI assistant. Respond in a friendly and clear manner.",
				Tone:         "friendly",
			})
			if err != nil {
				return fmt.Errorf("failed to create sample project: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sample project ID:", project.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipSample, "no-sample", false, "Do not create the sample project")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var (
		declaredType string
		summary      bool
	)

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF, Excel or Word file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if declaredType == "" {
				declaredType = path
			}

			if _, err := os.Stat(path); err != nil {
				return err
			}

			text, err := extract.NewExtractor(nil).Extract(cmd.Context(), path, declaredType)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !summary {
				fmt.Fprintln(out, text)
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"summary":  extract.Summarize(text, extract.DefaultSummaryLength),
				"metadata": extract.Stats(text),
			})
		},
	}
	cmd.Flags().StringVarP(&declaredType, "type", "t", "", "Declared file type (defaults to the file extension)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a preview and text statistics instead of the full text")
	return cmd
}
