// Command scorekit-notify subscribes to a scorekit server and prints high
// score notifications as they arrive. Useful for watching a board from a
// terminal and for smoke-testing the websocket path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scorekit/core"
	"scorekit/sdk"
)

func main() {
	server := flag.String("server", "http://localhost:8080/api", "base URL of the scorekit API")
	wsURL := flag.String("ws", "", "websocket URL (overrides -server derivation)")
	delay := flag.Duration("reconnect-delay", 3*time.Second, "pause between reconnect attempts")
	maxAttempts := flag.Int("max-reconnects", 5, "consecutive failed attempts before giving up")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	target := *wsURL
	if target == "" {
		var err error
		target, err = sdk.NewClient(*server).NotificationURL()
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad server URL: %v\n", err)
			os.Exit(1)
		}
	}

	consumer := sdk.NewConsumer(target, printNotification,
		sdk.WithReconnectDelay(*delay),
		sdk.WithMaxReconnects(*maxAttempts),
		sdk.WithConsumerLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		consumer.Disconnect()
	}()

	logger.Info("watching for high scores", "url", target)
	if err := consumer.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "notification stream failed: %v\n", err)
		os.Exit(1)
	}
}

func printNotification(n core.Notification) {
	switch n.Type {
	case core.NotificationTypeHighScore:
		fmt.Printf("[%s] %s\n", time.UnixMilli(n.Data.Timestamp).Format(time.TimeOnly), n.Data.Message)
	default:
		fmt.Printf("unknown notification type %q\n", n.Type)
	}
}
