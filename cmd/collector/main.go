// collector: telemetry collector for a fleet of hexbugs
// Accepts robot uplinks over WebSocket, keeps the latest snapshot per robot
// and stores history in sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-hexbug/internal/config"
	"github.com/teslashibe/go-hexbug/internal/log"
	"github.com/teslashibe/go-hexbug/pkg/cloud"
	"github.com/teslashibe/go-hexbug/pkg/protocol"
)

var (
	version = "0.4.0"
	port    = flag.Int("port", defaultPort(), "HTTP server port")
	dbPath  = flag.String("db", config.DefaultDBPath, "sqlite telemetry history (empty disables)")
	debug   = flag.Bool("debug", false, "enable debug logging")
)

func defaultPort() int {
	p, _ := strconv.Atoi(config.DefaultCollectorPort)
	if env := os.Getenv("PORT"); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			p = v
		}
	}
	return p
}

func main() {
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	fmt.Println()
	fmt.Println("📡 HexBug collector v" + version)
	fmt.Println()

	var store *cloud.Store
	if *dbPath != "" {
		var err error
		if store, err = cloud.OpenStore(*dbPath); err != nil {
			log.Error("open store", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	app := fiber.New(fiber.Config{
		AppName:               "hexbug-collector",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if *debug {
		app.Use(logger.New())
	}

	collector := cloud.NewCollector(store, log.Component("collector"))
	collector.RegisterRoutes(app)
	collector.RegisterAPIRoutes(app.Group("/api"))

	collector.OnTelemetry(func(robotID string, t *protocol.TelemetryData) {
		log.Debug("telemetry", "robot", robotID, "topic", t.Topic)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version,
			"robots":  collector.RobotCount(),
			"store":   store != nil,
		})
	})

	go func() {
		addr := fmt.Sprintf(":%d", *port)
		log.Info("collector listening", "addr", addr,
			"ws", fmt.Sprintf("ws://localhost:%d/ws/robot/<id>", *port),
			"api", fmt.Sprintf("http://localhost:%d/api/robots", *port))
		if err := app.Listen(addr); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("👋 shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("shutdown", "error", err)
	}
}
