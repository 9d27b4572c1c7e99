package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banky/go-hyperliquid-agent/agent"
	"github.com/banky/go-hyperliquid-agent/cache"
	"github.com/banky/go-hyperliquid-agent/config"
	"github.com/banky/go-hyperliquid-agent/exchange"
	"github.com/banky/go-hyperliquid-agent/info"
	"github.com/banky/go-hyperliquid-agent/internal/logger"
	"github.com/banky/go-hyperliquid-agent/nonce"
	"github.com/banky/go-hyperliquid-agent/rest"
	"github.com/banky/go-hyperliquid-agent/storage"
	"github.com/banky/go-hyperliquid-agent/tradingctx"
	"github.com/banky/go-hyperliquid-agent/ws"
)

type globalFlags struct {
	network string
	json    bool
	envFile string
}

// app holds what one invocation wires together.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg      *config.Config
	log      *slog.Logger
	wallet   *exchange.KeyWallet
	info     *info.Info
	contexts *tradingctx.Resolver
	exchange *exchange.Exchange
	hooks    *exchange.Hooks
	closers  []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(a.stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// setup loads the configuration and builds the component graph.
func (a *app) setup(ctx context.Context) error {
	var envFiles []string
	if a.flags.envFile != "" {
		envFiles = append(envFiles, a.flags.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if a.flags.network != "" {
		cfg.Network = a.flags.network
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.log = logger.NewWithWriter(a.stderr, cfg.LogLevel)

	key, err := cfg.WalletPrivateKey()
	if err != nil {
		return err
	}
	a.wallet = exchange.NewKeyWallet(key)
	network := cfg.NetworkValue()

	backend, err := a.openBackend(ctx)
	if err != nil {
		return err
	}

	var submitter exchange.Submitter
	switch cfg.Transport {
	case "ws":
		client := ws.New(cfg.APIURL(), ws.WithLogger(a.log))
		if err := client.Start(ctx); err != nil {
			return err
		}
		a.closers = append(a.closers, client.Stop)
		submitter = client
	default:
		submitter = rest.New(rest.Config{
			BaseUrl: cfg.APIURL(),
			Network: network,
			Timeout: cfg.Timeout,
			Logger:  a.log,
		})
	}

	var views *cache.Store
	if !cfg.CacheDisabled {
		views = cache.New(cache.WithLogger(a.log))
	}

	a.info = info.New(info.Config{Client: submitter, Cache: views, Logger: a.log})

	a.contexts = tradingctx.New(backend, network,
		tradingctx.WithSubAccountLister(a.info),
		tradingctx.WithLogger(a.log),
	)
	a.contexts.Connect(ctx, a.wallet.Address())

	store := agent.NewKeyStore(backend, network, a.wallet.Address(),
		agent.WithMaxAge(cfg.AgentMaxAge),
		agent.WithName(cfg.AgentName),
		agent.WithLogger(a.log),
	)

	a.exchange, err = exchange.New(exchange.Config{
		Submitter: submitter,
		Signer: exchange.NewSigner(a.wallet, store, network,
			exchange.WithAgentName(cfg.AgentName),
			exchange.WithSignerLogger(a.log),
		),
		Contexts:     a.contexts,
		Nonces:       nonce.New(),
		Assets:       a.info,
		Cache:        views,
		ExpiresAfter: cfg.ExpiresAfter,
		Logger:       a.log,
	})
	if err != nil {
		return err
	}
	a.hooks = exchange.NewHooks(a.exchange)
	return nil
}

// openBackend returns the configured store, sealed with the passphrase
// when one is set.
func (a *app) openBackend(ctx context.Context) (storage.Backend, error) {
	cfg := a.cfg

	var backend storage.Backend
	switch cfg.Storage {
	case "memory":
		backend = storage.NewMemory()
	case "disabled":
		return storage.Disabled{}, nil
	case "postgres":
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		pg := storage.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		backend = pg
	default:
		dir, err := filepath.Abs(cfg.StorageDir)
		if err != nil {
			return nil, err
		}
		file, err := storage.NewFile(dir)
		if err != nil {
			return nil, err
		}
		backend = file
	}

	if cfg.Passphrase == "" {
		return backend, nil
	}
	return storage.NewEncrypted(ctx, backend, []byte(cfg.Passphrase))
}

// loadAssets fetches the coin table for commands that name a coin.
func (a *app) loadAssets(ctx context.Context) error {
	if err := a.info.LoadAssets(ctx); err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errActionFailed = errors.New("action failed")

// report prints an outcome and turns a failure into a non-zero exit.
func (a *app) report(out exchange.Outcome) error {
	if a.flags.json {
		if err := a.printJSON(out); err != nil {
			return err
		}
	} else if out.Success {
		fmt.Fprintf(a.stdout, "%s: ok\n", out.Kind)
		if len(out.Data) > 0 {
			fmt.Fprintf(a.stdout, "%s\n", out.Data)
		}
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", out.Kind, out.Error)
	}

	if !out.Success {
		return fmt.Errorf("%w: %s", errActionFailed, out.Kind)
	}
	return nil
}
