package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rfpdash/internal"
	"rfpdash/internal/listener"
	"rfpdash/internal/store"
	"rfpdash/internal/views"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh the dashboard periodically and follow results written by other processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return c.watch(ctx, cmd)
		},
	}
}

func (c *cli) watch(ctx context.Context, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	unsubscribe := c.store.Subscribe(func(r internal.RfpResult) {
		view := views.Pricing(&r)
		fmt.Fprintf(out, "result updated rfp=%s line_items=%d grand_total=%s\n", r.RfpID, view.KPIs.TotalLineItems, money(view.KPIs.GrandTotal))
	})
	defer unsubscribe()

	svc := listener.NewService(c.client, c.db, c.cfg, c.logger)
	svc.OnRefresh = func(v views.DashboardView) {
		fmt.Fprintf(out, "dashboard total_rfps=%d won=%d win_rate=%s active_agents=%d\n", v.TotalRFPs, v.Won, v.WinRate, v.ActiveAgents)
	}

	var follower *store.Follower
	if c.files != nil {
		f, err := c.store.Follow(c.files)
		if err != nil {
			return fmt.Errorf("follow %s: %w", c.files.Dir, err)
		}
		follower = f
		c.logger.Info("following persisted result", zap.String("dir", c.files.Dir))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	if follower != nil {
		g.Go(func() error { return follower.Run(ctx) })
	}
	return g.Wait()
}
