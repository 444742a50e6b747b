package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/postboard/internal/config"
	"github.com/xxxsen/postboard/internal/db"
	"github.com/xxxsen/postboard/internal/filestore"
	"github.com/xxxsen/postboard/internal/gql"
	"github.com/xxxsen/postboard/internal/handler"
	"github.com/xxxsen/postboard/internal/middleware"
	"github.com/xxxsen/postboard/internal/pkg/jwt"
	"github.com/xxxsen/postboard/internal/repo"
	"github.com/xxxsen/postboard/internal/repo/mongorepo"
	"github.com/xxxsen/postboard/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "postboard",
		Short: "postboard blog backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run postboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			stores, closeStores, err := openStores(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer closeStores()
			return runServer(cfg, stores)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "create tables or indexes for the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			_, closeStores, err := openStores(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			closeStores()
			logutil.GetLogger(context.Background()).Info("migration finished", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd, migrateCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

type stores struct {
	users service.UserStore
	posts service.PostStore
}

// openStores connects the configured backend and makes sure its schema exists.
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, func(), error) {
	if cfg.Driver == "mongo" {
		client, database, err := mongorepo.Open(ctx, cfg.URI, cfg.Name)
		if err != nil {
			return nil, nil, err
		}
		if err := mongorepo.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return &stores{users: mongorepo.NewUserRepo(database), posts: mongorepo.NewPostRepo(database)}, closeFn, nil
	}
	conn, dialect, err := db.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	closeFn := func() { _ = conn.Close() }
	return &stores{users: repo.NewUserRepo(conn, dialect), posts: repo.NewPostRepo(conn, dialect)}, closeFn, nil
}

func runServer(cfg *config.Config, st *stores) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	tokens := service.NewTokenService(jwt.NewManager([]byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLMinutes)*time.Minute))
	authService := service.NewAuthService(st.users, tokens, cfg.BcryptCost)
	postService := service.NewPostService(st.posts, st.users, cfg.PostsPerPage)

	schema, err := gql.NewSchema(gql.NewResolver(authService, postService))
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("file store ready", zap.String("type", store.Type()))

	deps := handler.RouterDeps{
		GraphQL:         gql.NewHandler(schema),
		Images:          handler.NewImageHandler(store, cfg.UploadMaxBytes),
		Tokens:          tokens,
		UploadRateLimit: time.Duration(cfg.UploadRateLimitMs) * time.Millisecond,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
