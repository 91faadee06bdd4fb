package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/parley-sh/parley"
	"github.com/parley-sh/parley/internal/logging"
	"github.com/parley-sh/parley/internal/presentation/tui"
	"github.com/parley-sh/parley/pkg/adapters/file"
	httpadapter "github.com/parley-sh/parley/pkg/adapters/http"
	"github.com/parley-sh/parley/pkg/adapters/process"
	redisadapter "github.com/parley-sh/parley/pkg/adapters/redis"
	"github.com/parley-sh/parley/pkg/ports"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	RunE:  runRepl,
}

func init() {
	replCmd.Flags().String("config", "commands.yaml", "External commands config file")
	replCmd.Flags().String("history", "", "History file path (default ~/.parley_history)")
	replCmd.Flags().String("redis", "", "Redis address for shared history (overrides --history)")
	replCmd.Flags().String("listen", "", "Address for the HTTP control server (e.g. :8787)")
	replCmd.Flags().Bool("plain", false, "Disable the banner and markdown help rendering")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	plain, _ := cmd.Flags().GetBool("plain")
	configPath, _ := cmd.Flags().GetString("config")
	historyPath, _ := cmd.Flags().GetString("history")
	redisAddr, _ := cmd.Flags().GetString("redis")
	listenAddr, _ := cmd.Flags().GetString("listen")

	logger := logging.NewNop()
	if debug {
		logger = logging.New(slog.LevelDebug)
	}

	history, err := buildHistory(historyPath, redisAddr)
	if err != nil {
		return err
	}

	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithDelimiter(tui.Delimiter("parley")),
	}
	if history != nil {
		opts = append(opts, parley.WithHistory(history))
	}
	if !plain {
		opts = append(opts, parley.WithHelpRenderer(tui.NewRenderer()))
	}

	sh := parley.New(opts...)
	registerDemoCommands(sh)

	configs, err := process.Load(configPath)
	if err != nil {
		return fmt.Errorf("error loading commands config: %w", err)
	}
	process.Register(sh, configs)

	if !plain {
		tui.PrintBanner(parley.Version)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenAddr != "" {
		srv := &http.Server{
			Addr:    listenAddr,
			Handler: httpadapter.NewHandler(sh, httpadapter.WithLogger(logger)),
		}
		go func() {
			logger.Info("control server listening", "addr", listenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("control server failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return sh.Run(ctx)
}

func buildHistory(path, redisAddr string) (ports.HistoryStore, error) {
	if redisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		return redisadapter.NewHistoryStore(client, "parley"), nil
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = home + "/.parley_history"
	}
	store, err := file.NewHistoryStore(path)
	if err != nil {
		return nil, fmt.Errorf("error opening history: %w", err)
	}
	return store, nil
}

// registerDemoCommands installs a few commands so the shell is usable out of
// the box.
func registerDemoCommands(sh *parley.Shell) {
	sh.Command("say <words...>", "Says something back.").
		Alias("speak").
		Option("-l, --loud", "Shout it.").
		Action(func(ctx context.Context, args *parley.Args) (any, error) {
			msg := strings.Join(args.Strings("words"), " ")
			if args.Bool("loud") {
				msg = strings.ToUpper(msg) + "!"
			}
			sh.Log(msg)
			return msg, nil
		})

	sh.Command("delay <ms>", "Waits the given milliseconds, then reports.").
		Action(func(ctx context.Context, args *parley.Args) (any, error) {
			var in struct {
				Ms int `mapstructure:"ms"`
			}
			if err := args.Bind(&in); err != nil {
				return nil, err
			}
			select {
			case <-time.After(time.Duration(in.Ms) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			sh.Log(fmt.Sprintf("waited %dms", in.Ms))
			return in.Ms, nil
		})
}
