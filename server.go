package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ministry-site/config"
	"ministry-site/database"
	contentapi "ministry-site/internal/api/content"
	editorapi "ministry-site/internal/api/editor"
	siteapi "ministry-site/internal/api/site"
	uploadsapi "ministry-site/internal/api/uploads"
	worshipapi "ministry-site/internal/api/worship"
	routes "ministry-site/internal/app/http"
	"ministry-site/internal/app/http/middleware"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/worship"
	"ministry-site/internal/infra/storage"
	"ministry-site/internal/live"
	"ministry-site/internal/render"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sweepSpec runs the in-memory session expiry sweep.
const sweepSpec = "@every 5m"

func runServe(cmd *cobra.Command, args []string) error {
	log := zap.L()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.AutoMigrate(database.DB); err != nil {
			return err
		}
	}

	sessions, stopSessions, err := sessionStore(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer stopSessions()

	store := content.NewStore(database.DB)
	worshipSvc := worship.NewService(database.DB, log.Named("worship"))

	renderer, err := render.New(
		render.WithLogger(log.Named("render")),
		render.WithWidget(content.SectionEvents, siteapi.EventsWidget(worshipSvc, nil)),
	)
	if err != nil {
		return err
	}

	var uploader storage.Uploader
	if config.UploadsEnabled() {
		s3, err := storage.NewS3Uploader(storage.S3Options{
			Bucket:          config.S3_BUCKET,
			Region:          config.S3_REGION,
			Endpoint:        config.S3_ENDPOINT,
			AccessKeyID:     config.S3_ACCESS_KEY_ID,
			SecretAccessKey: config.S3_SECRET_ACCESS_KEY,
			PublicBaseURL:   config.S3_PUBLIC_BASE_URL,
		})
		if err != nil {
			return err
		}
		uploader = s3
	} else {
		log.Info("uploads disabled: S3 not configured")
	}

	editor := live.NewEditor(live.NewRegistry(sessions), store, log.Named("editor"))

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log.Named("http")))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "apikey"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Site:    siteapi.NewHandler(store, renderer, log.Named("site")),
		Content: contentapi.NewHandler(store, log.Named("content")),
		Editor:  editorapi.NewHandler(editor, renderer, log.Named("editor")),
		Worship: worshipapi.NewHandler(worshipSvc, log.Named("worship")),
		Uploads: uploadsapi.NewHandler(database.DB, uploader, log.Named("uploads")),
	})

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", config.APP_ENV))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

// sessionStore keeps edit sessions in redis when REDIS_URL is set so they
// survive restarts and are shared between instances, and in memory
// otherwise.
func sessionStore(ctx context.Context, log *zap.Logger) (live.Store, func(), error) {
	if config.REDIS_URL == "" {
		mem := live.NewMemoryStore(config.EDIT_SESSION_TTL, log.Named("sessions"))
		if err := mem.Start(sweepSpec); err != nil {
			return nil, nil, err
		}
		return mem, mem.Stop, nil
	}

	opts, err := redis.ParseURL(config.REDIS_URL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.Info("edit sessions in redis")
	return live.NewRedisStore(rdb, config.EDIT_SESSION_TTL), func() { _ = rdb.Close() }, nil
}
