package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/dropship"
	"github.com/bft-labs/dropship/internal/cliconfig"
	dlog "github.com/bft-labs/dropship/pkg/log"
)

const longHelp = `Send files to another machine over plain TCP, one connection per file.

Run "dropship receive" on the target host, then "dropship send FILE..." from
the source. Received files land in the save directory (default
./received_files) and are written under a temporary name until complete.

Configuration is read from $HOME/.dropship/config.toml, then DROPSHIP_*
environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  dropship receive --save-dir ~/inbox
  dropship receive --exec xdg-open
  dropship send --host 192.168.1.20 report.pdf photo.jpg
  dropship send --host 192.168.1.20 --watch ~/outbox
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger(false)

	root := &cobra.Command{
		Use:           "dropship",
		Short:         "Point-to-point file transfer over TCP",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}
			log = cliconfig.Logger(cfg.Debug)
			log.Debug().Interface("config", cfg).Msg("configuration")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.dropship/config.toml)")
	root.PersistentFlags().IntVar(&cfg.Port, "port", cfg.Port, "TCP port of the receiver")
	root.PersistentFlags().IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "payload read/write size in bytes")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	root.AddCommand(
		newSendCmd(&cfg, &log),
		newReceiveCmd(&cfg, &log),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("dropship")
		os.Exit(1)
	}
}

// loadConfig layers the config file and environment under the flags that
// were set explicitly on the command line.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgPath != "" && !cliconfig.FileExists(cfgPath) {
		return fmt.Errorf("config file %s not found", cfgPath)
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(log *zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func libLogger(log *zerolog.Logger) dropship.Logger {
	return dlog.NewZerologAdapterWithLogger(*log)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
