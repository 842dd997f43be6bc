package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Alp4ka/livepager"
	"github.com/Alp4ka/livepager/internal/postdb"
)

// follow subscribes to stream and writes every item as a JSON line until
// the context ends, the stream fails or maxItems items were written. A
// non-positive maxItems means no limit.
func follow[T any](cmd *cobra.Command, log logrus.FieldLogger, stream *livepager.Stream[T], maxItems int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		written  int
		writeErr error
		sub      *livepager.Subscription
		ready    = make(chan struct{})
	)

	sub, err := stream.Subscribe(ctx, livepager.ObserverFuncs[T]{
		OnNext: func(item T) {
			<-ready
			if writeErr = writeJSON(cmd, item); writeErr != nil {
				sub.Cancel()
				return
			}

			written++
			if maxItems > 0 && written >= maxItems {
				sub.Cancel()
			}
		},
		OnComplete: func() {
			log.Debug("stream completed")
		},
	})
	if err != nil {
		return err
	}
	close(ready)

	<-sub.Done()

	if writeErr != nil {
		return writeErr
	}

	return sub.Err()
}

func newWatchCommand(a *app) *cobra.Command {
	var (
		cursor   string
		maxItems int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the whole feed every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var initial *string
			if cmd.Flags().Changed("cursor") {
				initial = &cursor
			}

			stream, err := a.store.Live(initial, a.cfg.Stream.Interval)
			if err != nil {
				return err
			}

			return follow(cmd, a.log, stream, maxItems)
		},
	}

	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor of the last snapshot already seen")
	cmd.Flags().IntVar(&maxItems, "max", 0, "stop after this many snapshots")
	return cmd
}

func newTailCommand(a *app) *cobra.Command {
	var (
		after    int64
		maxItems int
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print posts as they are added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var start *int64
			if cmd.Flags().Changed("after") {
				start = &after
			}

			stream, err := a.store.NewPosts(start, a.cfg.Stream.Interval)
			if err != nil {
				return err
			}

			if err = follow[postdb.Post](cmd, a.log, stream, maxItems); err != nil {
				return fmt.Errorf("tail stopped: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&after, "after", 0, "position of the last post already seen")
	cmd.Flags().IntVar(&maxItems, "max", 0, "stop after this many posts")
	return cmd
}
