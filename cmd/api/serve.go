package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dailyreport/internal/ai"
	"dailyreport/internal/config"
	"dailyreport/internal/handler"
	"dailyreport/internal/metrics"
	"dailyreport/internal/middleware"
	"dailyreport/internal/repository"
	"dailyreport/internal/service"
	"dailyreport/internal/storage"
	"dailyreport/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log, db)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger, db *gorm.DB) error {
	gin.SetMode(cfg.GinMode)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	deadline, err := cfg.Deadline()
	if err != nil {
		return err
	}
	scales, err := service.ParseRatingScales(cfg.Report.RatingScales)
	if err != nil {
		return fmt.Errorf("invalid RATING_SCALES: %w", err)
	}
	gate := service.NewEditingGate(loc, deadline)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	// Optional collaborators stay untyped nil when disabled
	var enhancer ai.Enhancer
	if cfg.AI.Enabled() {
		enhancer = ai.NewClient(cfg.AI)
	} else {
		log.Warn("AI enhancement disabled: AI_API_KEY or AI_DEPLOYMENT not set")
	}
	var files storage.FileStore
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			log.WithError(err).Warn("file storage disabled")
		} else {
			files = store
		}
	} else {
		log.Warn("file storage disabled: S3_BUCKET not set")
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	reportRepo := repository.NewReportRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	overlayRepo := repository.NewOverlayRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo, cfg.JWTSecret)
	projectService := service.NewProjectService(projectRepo)
	directoryService := service.NewDirectoryService(directoryRepo, approvalRepo)
	consolidationService := service.NewConsolidationService(recordRepo, overlayRepo, log)
	recordService := service.NewRecordService(txManager, recordRepo, reportRepo, projectRepo, auditRepo, gate, log)
	overlayService := service.NewOverlayService(consolidationService, overlayRepo, reportRepo, projectRepo, gate, enhancer, files, log)
	reportService := service.NewReportService(txManager, reportRepo, approvalRepo, commentRepo, projectRepo, directoryRepo, auditRepo, gate, scales, wsHub, log)
	commentService := service.NewCommentService(txManager, reportRepo, commentRepo, approvalRepo, directoryRepo, auditRepo, wsHub, log)
	exportService := service.NewExportService(reportService)
	uploadService := service.NewUploadService(files, log)
	auditService := service.NewAuditService(auditRepo)

	secureCookie := cfg.GinMode == gin.ReleaseMode
	routes := []interface {
		RegisterRoutes(*gin.RouterGroup, middleware.Guard)
	}{
		handler.NewAuthHandler(userService, secureCookie),
		handler.NewProjectHandler(projectService),
		handler.NewRecordHandler(recordService, consolidationService, overlayService),
		handler.NewUploadHandler(uploadService),
		handler.NewReportHandler(reportService, scales, gate),
		handler.NewCommentHandler(commentService),
		handler.NewSupervisorHandler(directoryService, reportService, exportService),
		handler.NewAuditHandler(auditService),
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLog(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint, one subscription per report
	guard := middleware.NewGuard(cfg.JWTSecret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, guard.Secret(), func(ctx context.Context, userID, reportID uuid.UUID) error {
			_, err := reportService.GetReport(ctx, reportID, userID)
			return err
		})
	})

	api := router.Group("")
	for _, h := range routes {
		h.RegisterRoutes(api, guard)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	overlayService.Wait()
	return nil
}
