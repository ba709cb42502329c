package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsdesk/internal/handler"
	"newsdesk/internal/reader"
	"newsdesk/internal/searchconsole"
	"newsdesk/internal/server"
	"newsdesk/internal/service"
	"newsdesk/internal/tts"
	"newsdesk/internal/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	gin.SetMode(cfg.Server.Mode)

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	tax, err := loadTaxonomy()
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}

	rd, err := reader.New(cfg.Reader, nil, log)
	if err != nil {
		return err
	}

	ledger, err := searchconsole.OpenLedger(cfg.SearchConsole.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	// 初始化服务
	h := handler.NewHandler(handler.Deps{
		Site:          cfg.Site,
		Pagination:    cfg.Pagination,
		Feeds:         cfg.Feeds,
		Taxonomy:      tax,
		Articles:      service.NewArticleService(db, nil, log, cfg.Pagination),
		Posts:         service.NewPostService(db, cfg.Pagination),
		Status:        service.NewStatusService(db, tax),
		Bloomberg:     upstream.New(cfg.Bloomberg, nil, log),
		Reader:        rd,
		TTS:           tts.New(cfg.TTS, nil, log),
		SearchConsole: searchconsole.NewChecker(cfg.Site, cfg.SearchConsole, nil, ledger, log),
		Log:           log,
	})
	router, err := handler.NewRouter(h)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := server.New(cfg.GetServerAddress(), router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
