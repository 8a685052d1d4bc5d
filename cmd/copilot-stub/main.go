package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/stubserver"
)

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	flag.Parse()

	log := logging.NewDefault()
	defer log.Sync()

	srv := stubserver.New(log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(*addr)
	}()

	select {
	case <-sigChan:
		log.Info("shutting down")
	case err := <-errChan:
		log.Fatal(err.Error())
	}
}
