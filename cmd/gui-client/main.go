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
	"github.com/kosalvireak/chatroom/internal/ui"
)

func main() {
	host, port := parseArgs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list := ui.NewList()
	c := client.New(client.Config{
		Host:  host,
		Port:  port,
		Input: os.Stdin,
		Sink:  client.NewTerminalSink(os.Stdout),
		Logf: func(format string, args ...any) {
			list.Notice(fmt.Sprintf(format, args...))
		},
	})

	if err := c.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}

	receiver, err := c.Start(ctx)
	if err != nil {
		if errors.Is(err, client.ErrTransport) {
			return
		}
		log.Fatalf("Failed to join chat: %v", err)
	}
	receiver.Attach(list)

	chatUI, err := ui.New(c, list, fmt.Sprintf("%s @ %s", c.Name(), client.Address(host, port)))
	if err != nil {
		c.Quit()
		c.Wait()
		log.Fatalf("Failed to start UI: %v", err)
	}

	runErr := chatUI.Run(receiver.Done())
	chatUI.Close()
	if runErr != nil {
		log.Printf("UI error: %v", runErr)
	}

	c.Quit()
	c.Wait()

	// The list went away with the UI; repeat why the session ended.
	reason := c.Err()
	if !errors.Is(reason, client.ErrUserQuit) && !errors.Is(reason, client.ErrPeerClosed) {
		log.Printf("Connection error: %v", reason)
	}
	term := client.NewTerminalSink(os.Stdout)
	for _, notice := range client.ShutdownNotices(reason) {
		term.Notice(notice)
	}
}

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
