package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mahjong-lite/apps/server/internal/auth"
	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/gateway"
	"mahjong-lite/apps/server/internal/history"
	"mahjong-lite/apps/server/internal/lobby"
	"mahjong-lite/apps/server/internal/monitor"
	"mahjong-lite/apps/server/internal/stats"
	"mahjong-lite/internal/logx"
	"mahjong-lite/internal/metrics"
	"mahjong-lite/mahjong/npc"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "mahjong room server",
	Long:  `四人中国象棋牌麻将房间服务`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			logx.Fatal("config load failed: %v", err)
		}
		cfg := config.Get()
		logx.Init(cfg.AppName, cfg.Level)

		if cfg.MetricPort > 0 {
			go func() {
				logx.Info("metrics on http://localhost:%d/debug/statsviz/", cfg.MetricPort)
				if err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", cfg.MetricPort)); err != nil {
					logx.Error("metrics server failed: %v", err)
				}
			}()
		}

		if err := run(cfg); err != nil {
			logx.Error("server exited: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "configs/server.yml", "resource file")
}

func run(cfg config.ServerConfiguration) error {
	authService, err := auth.New(cfg.AuthConf, cfg.JwtConf)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	defer authService.Close()

	historyService, err := history.New(cfg.HistoryConf)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer historyService.Close()

	statsService, err := stats.New(cfg.StatsConf)
	if err != nil {
		return fmt.Errorf("init stats: %w", err)
	}
	defer statsService.Close()

	registry := npc.NewRegistry()
	if cfg.AIConf.PersonasFile != "" {
		if err := registry.LoadFromFile(cfg.AIConf.PersonasFile); err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
	}
	npcManager := npc.NewManager(registry, cfg.AIConf.ThinkMin(), cfg.AIConf.ThinkMax())

	gw := gateway.New(authService)
	lby := lobby.New(gw.SendToUser, npcManager)
	defer lby.Stop()
	gw.SetLobby(lby)
	lby.AddRoundEndHook(history.Hook(historyService))
	lby.AddRoundEndHook(stats.Hook(statsService))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mon := monitor.New(lby, gw, 10*time.Second)
	go mon.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ws", func(c *gin.Context) {
		gw.HandleWebSocket(c.Writer, c.Request)
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	auth.NewHTTPHandler(authService).RegisterRoutes(router)
	lobby.NewHTTPHandler(lby).RegisterRoutes(router)
	history.NewHTTPHandler(historyService).RegisterRoutes(router)
	stats.NewHTTPHandler(statsService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logx.Info("received %s, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
