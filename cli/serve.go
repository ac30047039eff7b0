package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedthameursassi/IndoorNavServer/config"
	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/handlers"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
	"github.com/mohamedthameursassi/IndoorNavServer/services"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

const shutdownTimeout = 10 * time.Second

// backends holds the opened stores plus whatever must be closed on exit.
type backends struct {
	graphs  store.GraphStore
	data    *store.BadgerStore
	closers []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem := store.NewMemoryStore()
		graphs, err := navgraph.LoadSnapshotsFromDirectory(cfg.GraphDataDir)
		if err != nil {
			return nil, fmt.Errorf("load graphs from %s: %w", cfg.GraphDataDir, err)
		}
		for _, bg := range graphs {
			if err := mem.PutBuildingGraph(bg); err != nil {
				return nil, err
			}
		}
		log.Printf("Loaded %d building graphs into memory", len(graphs))
		b.graphs = mem
	case config.BackendSnapshot:
		b.graphs = store.NewSnapshotStore(cfg.GraphDataDir)
	case config.BackendNeo4j:
		exec, err := store.NewNeo4jExecutor(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			return nil, err
		}
		if err := exec.Verify(ctx); err != nil {
			exec.Close(ctx)
			return nil, fmt.Errorf("neo4j connectivity: %w", err)
		}
		b.closers = append(b.closers, func() error { return exec.Close(context.Background()) })
		b.graphs = store.NewNeo4jStore(exec)
	}

	data, err := store.OpenBadger(cfg.BadgerDir, cfg.CongestionTTL)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.data = data
	b.closers = append(b.closers, data.Close)
	return b, nil
}

func RunServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	nav := services.NewNavigationService(cfg.Navigation, b.graphs, b.data, b.data)
	cong := services.NewCongestionService(congestion.New(congestion.WithConfig(cfg.Congestion)), b.data)
	users := services.NewUserService(b.data)

	// Warm the default building so the first request does not pay for it.
	if _, err := nav.ComputeGraph(ctx, cfg.BuildingID); err != nil {
		log.Printf("Warning: could not preload building %s: %v", cfg.BuildingID, err)
	}

	apiServer := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: handlers.NewAPIRouter(handlers.NewAPIHandler(nav, cong, users)),
	}
	opsServer := &http.Server{
		Addr:    cfg.OpsAddr,
		Handler: handlers.NewOpsRouter(handlers.NewOpsHandler(nav, cong)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, opsServer} {
		g.Go(func() error {
			log.Printf("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), opsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
