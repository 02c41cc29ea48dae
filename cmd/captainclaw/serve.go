package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/api"
	"github.com/liliang-cn/captainclaw/internal/extract"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"github.com/liliang-cn/captainclaw/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if !cfg.Log.Development {
				gin.SetMode(gin.ReleaseMode)
			}

			db, err := repository.NewDB(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			// Initialize repositories
			projectRepo := repository.NewProjectRepository(db)
			conversationRepo := repository.NewConversationRepository(db)
			fileRepo := repository.NewFileRepository(db)

			// Initialize services
			searchService := service.NewSearchService(projectRepo, fileRepo)
			if err := searchService.Rebuild(); err != nil {
				logger.Warn("Failed to build search index", zap.Error(err))
			}

			gateway := llm.NewGatewayFromConfig(&cfg.LLM, logger)
			orchestrator := service.NewChatOrchestrator(fileRepo, gateway, logger)

			services := api.Services{
				Projects: service.NewProjectService(projectRepo, conversationRepo, fileRepo, searchService, logger),
				Files:    service.NewFileService(projectRepo, fileRepo, extract.NewExtractor(logger), searchService, cfg, logger),
				Chat:     service.NewChatService(projectRepo, conversationRepo, orchestrator, logger),
				Export:   service.NewExportService(projectRepo, conversationRepo, fileRepo),
				Search:   searchService,
			}

			router := api.SetupRouter(services, api.RouterConfig{
				APIKey:       cfg.Admin.APIKey,
				AllowOrigins: cfg.Server.AllowOrigins,
				MaxUploadMB:  cfg.Storage.MaxUploadMB,
			}, logger)

			// provider calls are bounded by llm.timeout
			srv := &http.Server{
				Addr:         cfg.Address(),
				Handler:      router,
				ReadTimeout:  60 * time.Second,
				WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting CaptainClaw server",
					zap.String("address", cfg.Address()),
					zap.Bool("openai", cfg.LLM.OpenAIAPIKey != ""),
					zap.Bool("openrouter", cfg.LLM.OpenRouterAPIKey != ""),
					zap.String("ollama_model", cfg.LLM.OllamaModel),
				)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Info("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return err
			}

			logger.Info("Server exited")
			return nil
		},
	}
}
