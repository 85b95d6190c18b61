package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/collector/archive"
	"github.com/newthinker/checksignal/internal/collector/yahoo"
	store "github.com/newthinker/checksignal/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var fetchOpts struct {
	days     int
	parallel int
}

var fetchCmd = &cobra.Command{
	Use:   "fetch SYMBOL...",
	Short: "Download daily history from Yahoo Finance into the archive",
	Long: `Download daily history from Yahoo Finance and store it as CSV in the
configured archive, where the archive price source reads it back.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchOpts.days, "days", 0, "calendar days of history (default source.history_days)")
	fetchCmd.Flags().IntVar(&fetchOpts.parallel, "parallel", 4, "symbols fetched at once")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer log.Sync()

	storage, err := app.OpenArchive(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	y := yahoo.New()
	if err := y.Init(collector.Config{Timeout: cfg.Source.Timeout}); err != nil {
		return err
	}

	days := fetchOpts.days
	if days <= 0 {
		days = cfg.Source.HistoryDays
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	var (
		mu     sync.Mutex
		failed []string
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(fetchOpts.parallel, 1))
	for _, arg := range args {
		symbol := strings.ToUpper(strings.TrimSpace(arg))
		g.Go(func() error {
			h, err := y.FetchHistory(ctx, symbol, start, end)
			if err == nil {
				err = archive.Save(ctx, storage, h)
			}
			if err != nil {
				log.Error("fetch failed", zap.String("symbol", symbol), zap.Error(err))
				mu.Lock()
				failed = append(failed, symbol)
				mu.Unlock()
				return nil
			}
			log.Info("history archived",
				zap.String("symbol", symbol),
				zap.Int("bars", len(h.Bars)),
				zap.Int("dividends", len(h.Dividends)),
				zap.String("key", store.PriceKey(symbol)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d symbols failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
}
