package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"kwpdash/cmd/kwpdash/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	go func() {
		s := <-quit
		log.Printf("got %v, shutting down", s)
		cancel()
	}()
	cmd.Execute(ctx)
}
