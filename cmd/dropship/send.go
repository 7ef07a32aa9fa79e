package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/outbox"
)

func newSendCmd(cfg *cliconfig.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [files...]",
		Short: "Send files to a receiver, one connection per file",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Checked here rather than in Args so a watch dir from the
			// config file or environment counts.
			if cfg.WatchDir == "" && len(args) == 0 {
				return errors.New("send: at least one file or --watch is required")
			}
			if err := cfg.ValidateSend(); err != nil {
				return err
			}

			ctx, cancel := signalContext(log)
			defer cancel()

			sender := dropship.NewSender(
				dropship.WithLogger(libLogger(log)),
				dropship.WithChunkSize(cfg.ChunkSize),
				dropship.WithDialTimeout(cfg.DialTimeout),
			)

			var errs []error
			for _, path := range args {
				if err := sender.Send(ctx, path, cfg.Host, cfg.Port); err != nil {
					if isCanceled(err) {
						return nil
					}
					log.Error().Err(err).Str("file", path).Msg("send failed")
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
			}

			if cfg.WatchDir != "" {
				w := outbox.New(outbox.Config{
					Dir:      cfg.WatchDir,
					Host:     cfg.Host,
					Port:     cfg.Port,
					Debounce: cfg.Debounce,
					RetryMax: cfg.RetryMax,
				}, sender, libLogger(log))
				if err := w.Run(ctx); err != nil && !isCanceled(err) {
					errs = append(errs, err)
				}
			}

			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "receiver host name or address")
	cmd.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connection timeout")
	cmd.Flags().StringVar(&cfg.WatchDir, "watch", cfg.WatchDir, "send files as they appear in this directory")
	cmd.Flags().DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "quiet period before a watched file is sent")
	cmd.Flags().IntVar(&cfg.RetryMax, "retry-max", cfg.RetryMax, "send attempts per watched file")

	return cmd
}
