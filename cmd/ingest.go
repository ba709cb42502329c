package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsdesk/internal/scheduler"
	"newsdesk/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull the configured RSS feeds into the article store",
	Long: `Pull the configured RSS feeds into the article store.

Examples:
  newsdesk ingest --once         # Fetch every feed once and exit
  newsdesk ingest                # Fetch on the configured cron schedule`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Bool("once", false, "fetch every feed once and exit")
}

func runIngest(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	feeds := service.NewFeedService(db, log, cfg.Ingest)
	sched := scheduler.NewScheduler(feeds, cfg.Ingest, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		added, err := sched.RunOnce(ctx)
		log.Info("ingest finished", zap.Int("added", added), zap.Error(err))
		return err
	}

	// 启动定时任务
	if err := sched.Start(); err != nil {
		return err
	}
	log.Info("ingest scheduler started", zap.Time("next", sched.GetNextFetchTime()))
	<-ctx.Done()
	sched.Stop()
	return nil
}
