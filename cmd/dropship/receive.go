package main

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship"
	"github.com/bft-labs/dropship/internal/cliconfig"
)

func newReceiveCmd(cfg *cliconfig.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Listen for incoming files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateReceive(); err != nil {
				return err
			}

			l, err := dropship.Bind(cfg.Port, cfg.SaveDir,
				dropship.WithLogger(libLogger(log)),
				dropship.WithChunkSize(cfg.ChunkSize),
			)
			if err != nil {
				return err
			}
			defer l.Close()

			ctx, cancel := signalContext(log)
			defer cancel()

			q := dropship.NewQueue()
			r := dropship.NewReceiver(l, q,
				dropship.WithLogger(libLogger(log)),
				dropship.WithPollTimeout(cfg.PollTimeout),
			)

			return serve(ctx, cancel, r, q, cfg.ConsumeInterval, arrivalHandler(cfg.Exec, log))
		},
	}

	cmd.Flags().StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "directory received files are written to")
	cmd.Flags().DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "accept window of each poll")
	cmd.Flags().DurationVar(&cfg.ConsumeInterval, "consume-interval", cfg.ConsumeInterval, "sleep between checks of an empty queue")
	cmd.Flags().StringVar(&cfg.Exec, "exec", cfg.Exec, "command run with the path of each received file")

	return cmd
}

// serve runs the accept loop next to the consumer loop until ctx is done or
// the accept loop stops, then hands any queued paths to handle. Cancellation
// is a clean shutdown and returns nil.
func serve(ctx context.Context, cancel context.CancelFunc, r *dropship.Receiver, q *dropship.Queue, interval time.Duration, handle func(path string)) error {
	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx)
		cancel()
	}()

	consumeErr := dropship.Consume(ctx, q, interval, handle)

	// Files already on disk are still handed to the hook on shutdown
	err := <-runErr
	for {
		path, ok := q.TryDequeue()
		if !ok {
			break
		}
		handle(path)
	}
	if err != nil && !isCanceled(err) {
		return err
	}
	if consumeErr != nil && !isCanceled(consumeErr) {
		return consumeErr
	}
	return nil
}

// arrivalHandler returns the consumer callback for received files. With a
// hook command set, the command runs with the file path appended.
func arrivalHandler(hook string, log *zerolog.Logger) func(path string) {
	argv := strings.Fields(hook)
	return func(path string) {
		log.Info().Str("path", path).Msg("file ready")
		if len(argv) == 0 {
			return
		}

		c := exec.CommandContext(context.Background(), argv[0], append(argv[1:], path)...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			log.Warn().Err(err).Str("path", path).Str("exec", hook).Msg("hook failed")
		}
	}
}
