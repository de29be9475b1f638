// Command spawnpool is the debug and demo tool for the spawnpool library.
// It drives a pool against a configured asset backend and prints pool
// introspection snapshots, which is the same surface in-game debug panels
// poll.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/playforge/spawnpool/pkg/asset"
	"github.com/playforge/spawnpool/pkg/config"
	"github.com/playforge/spawnpool/pkg/gameclock"
	"github.com/playforge/spawnpool/pkg/logger"
	"github.com/playforge/spawnpool/pkg/observability"
	"github.com/playforge/spawnpool/pkg/pool"

	// Import backends to register them
	_ "github.com/playforge/spawnpool/pkg/asset/backend/memory"
	_ "github.com/playforge/spawnpool/pkg/asset/backend/redisstore"
)

var version = "0.1.0"

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:     "spawnpool",
		Short:   "Asynchronous keyed object pool over an asset backend",
		Version: version,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newDemoCmd(&configPath, &logLevel))
	root.AddCommand(newBackendsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, otherwise memory-backend
// defaults.
func loadConfig(configPath, logLevel string) (*config.BaseConfig, error) {
	cfg := config.NewBaseConfig("spawnpool-demo", "memory")
	if configPath != "" {
		if err := config.Load(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDemoCmd(configPath, logLevel *string) *cobra.Command {
	var (
		duration      time.Duration
		watchInterval time.Duration
		clearAtEnd    bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a simulated spawn/despawn workload and print pool snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, *logLevel)
			if err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:    cfg.Observability.LogLevel,
				Encoding: "console",
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Observability.EnableTracing {
				tc := observability.DefaultTracingConfig()
				tc.SamplingRate = cfg.Observability.TracingSampleRate
				if err := observability.Initialize(tc); err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = observability.Shutdown(ctx)
				}()
			}

			return runDemo(cmd.Context(), cfg, duration, watchInterval, clearAtEnd)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "how long to run the workload")
	cmd.Flags().DurationVar(&watchInterval, "watch-interval", 5*time.Second, "snapshot print cadence")
	cmd.Flags().BoolVar(&clearAtEnd, "clear", false, "clear all pools before exiting")
	return cmd
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available asset backend types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range asset.ListBackends() {
				fmt.Println(name)
			}
		},
	}
}

// demoKeys are the assets the demo workload cycles through.
var demoKeys = []string{"enemy", "coin", "explosion"}

func runDemo(ctx context.Context, cfg *config.BaseConfig, duration, watchInterval time.Duration, clearAtEnd bool) error {
	log := logger.Get()

	backend, err := asset.CreateBackend(cfg.Backend, &cfg.Resolver)
	if err != nil {
		return err
	}
	resolver := asset.NewResolver(backend, log)
	defer func() { _ = resolver.Close() }()

	if seeder, ok := backend.(interface{ Seed(string, []byte) }); ok {
		for _, key := range demoKeys {
			seeder.Seed(key, []byte(key+"-prefab"))
		}
	}

	p := pool.New(cfg.Pool, resolver, log)
	defer p.Close()

	if err := p.Register("enemy", 2, 5, 30*time.Second); err != nil {
		return err
	}

	// Game clock drives the workload: one spawn wave per game hour.
	clock := gameclock.New(gameclock.Config{
		TickInterval:   time.Second,
		MinutesPerTick: 60,
	}, log)
	defer clock.Stop()

	clock.Subscribe(func(now gameclock.Time) {
		key := demoKeys[now.Hour%len(demoKeys)]
		inst, err := p.Spawn(ctx, key, asset.Transform{Parent: "battlefield"})
		if err != nil {
			log.Warn("demo spawn failed", zap.String("key", key), zap.Error(err))
			return
		}
		p.DespawnAfter(inst, 3*time.Second)
	})
	clock.Start()

	deadline := time.NewTimer(duration)
	defer deadline.Stop()
	snapshots := time.NewTicker(watchInterval)
	defer snapshots.Stop()

	for {
		select {
		case <-snapshots.C:
			if err := printSnapshot(p); err != nil {
				return err
			}
		case <-deadline.C:
			if clearAtEnd {
				p.ClearAll()
			}
			return printSnapshot(p)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// printSnapshot dumps the detailed pool view as JSON.
func printSnapshot(p *pool.Pool) error {
	snapshot := struct {
		Counts map[string]int                 `json:"counts"`
		Detail map[string][]pool.InstanceInfo `json:"detail"`
	}{
		Counts: p.PoolInfo(),
		Detail: p.DetailedPoolInfo(),
	}

	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
