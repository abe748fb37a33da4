package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/observability"
	"github.com/matzehuels/gvbind/pkg/server"
	"github.com/matzehuels/gvbind/pkg/store"
)

// serveCommand creates the serve command that runs the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		mongoURI    string
		mongoDB     string
		redisAddr   string
		artifactTTL time.Duration
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run the HTTP render service.

Rendered artifacts are kept in MongoDB when --mongo-uri is set and in memory
otherwise. Set --redis-addr to share the render cache between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("mongo-uri") {
				cfg.Server.MongoURI = mongoURI
			}
			if cmd.Flags().Changed("mongo-db") {
				cfg.Server.MongoDatabase = mongoDB
			}
			if cmd.Flags().Changed("artifact-ttl") {
				cfg.Server.ArtifactTTL = Duration(artifactTTL)
			}
			if cmd.Flags().Changed("redis-addr") {
				cfg.Cache.Backend = backendRedis
				cfg.Cache.RedisAddr = redisAddr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI for the artifact store")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the render cache")
	cmd.Flags().DurationVar(&artifactTTL, "artifact-ttl", store.DefaultTTL, "how long stored artifacts can be fetched")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	cfg := c.Config.Server

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			c.Logger.Warn("close artifact store", "error", err)
		}
	}()

	observability.NewLogHooks(c.Logger).Install()
	defer observability.Reset()

	srv := server.New(server.Config{
		Runner:      runner,
		Store:       st,
		ArtifactTTL: cfg.ArtifactTTL.Duration(),
		Logger:      c.Logger,
	})

	printSuccess("Serving on %s", StyleLink.Render(listenURL(cfg.Addr)))
	printKeyValue("Cache", c.Config.Cache.Backend)
	printKeyValue("Store", storeKind(cfg))
	printKeyValue("Artifact TTL", cfg.ArtifactTTL.Duration().String())

	return srv.ListenAndServe(ctx, cfg.Addr)
}

func openStore(ctx context.Context, cfg ServerConfig) (store.Store, error) {
	if cfg.MongoURI == "" {
		return store.NewMemory(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	m, err := store.OpenMongo(connectCtx, store.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	return m, nil
}

func storeKind(cfg ServerConfig) string {
	if cfg.MongoURI == "" {
		return "memory"
	}
	return "mongodb/" + cfg.MongoDatabase
}

// listenURL turns a listen address into a URL for display.
func listenURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
