// Command wordbrowser serves the vocabulary browsing API. It restores the
// saved bookmarks and batch on startup and flushes them on SIGINT/SIGTERM.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/wordbrowser/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("wordbrowser: %v", err)
		stop()
		os.Exit(1)
	}
}
