package commands

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cfg "github.com/tamzrod/installer-client/internal/config"
	"github.com/tamzrod/installer-client/internal/progress"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/task"
)

// watch: follow backend progress until interrupted.
func watchCmd() *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow backend progress until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closer, err := openService(cfg.ServiceProgress)
			if err != nil {
				return err
			}
			defer closer()

			c := progress.New(h)
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// The initial snapshot runs behind a token so an interrupt
			// during a slow fetch suppresses the late print.
			tok := task.NewToken()
			go func() {
				<-ctx.Done()
				tok.Cancel()
			}()
			task.Run(tok, func() (*progress.Progress, error) {
				return c.GetProgress(ctx)
			}, printProgress)

			unsub, err := c.OnProgressChange(printProgress)
			if err != nil {
				return err
			}
			defer unsub()

			// Polling fallback for backends that never signal: each
			// cycle replaces the bag, and a fresh read reports it.
			if poll > 0 {
				r, err := proxy.NewRefresher(h, poll)
				if err != nil {
					return err
				}
				out := make(chan proxy.RefreshResult)
				go r.Run(ctx, out)
				go func() {
					for res := range out {
						if res.Err != nil {
							log.Printf("refresh failed: %v", res.Err)
							continue
						}
						printProgress(c.GetProgress(ctx))
					}
				}()
			}

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 0, "poll interval for backends that do not signal (0 disables)")
	return cmd
}

func printProgress(p *progress.Progress, err error) {
	if err != nil {
		log.Printf("progress unavailable: %v", err)
		return
	}
	fmt.Printf("[%d/%d] %s\n", p.Current, p.Total, p.Message)
}
