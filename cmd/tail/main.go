// Command tail follows the event stream of a running ledger server and
// prints one JSON line per committed event.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"launchpad-ledger/internal/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	endpoint := flag.String("endpoint", "ws://localhost:8080/ws/events", "Event stream WebSocket endpoint")
	mint := flag.String("mint", "", "Only follow events of this mint")
	kind := flag.String("kind", "", "Only print events of this kind")
	verbose := flag.Bool("verbose", false, "Log reconnects")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sub, err := events.Subscribe(ctx, *endpoint, *mint, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "subscribe: %v\n", err)
		os.Exit(1)
	}
	defer sub.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if *kind != "" && string(e.Kind) != *kind {
				continue
			}
			if err := enc.Encode(e); err != nil {
				fmt.Fprintf(os.Stderr, "write: %v\n", err)
				return
			}
		}
	}
}
