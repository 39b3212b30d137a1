package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kosalvireak/chatroom/internal/client"
)

func main() {
	host, port := parseArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Config{
		Host:        host,
		Port:        port,
		Input:       os.Stdin,
		Interactive: true,
		Sink:        client.NewTerminalSink(os.Stdout),
	})

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}

	if _, err := c.Start(ctx); err != nil {
		// A transport failure during the join already ran the shutdown path.
		if errors.Is(err, client.ErrTransport) {
			return
		}
		log.Fatalf("Failed to join chat: %v", err)
	}

	c.Wait()
}

// parseArgs accepts the host before or after -p.
func parseArgs() (string, int) {
	port := flag.Int("p", client.DefaultPort, "TCP port")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-p PORT] host\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	host := flag.Arg(0)
	if err := flag.CommandLine.Parse(flag.Args()[1:]); err != nil {
		os.Exit(2)
	}
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	return host, *port
}
