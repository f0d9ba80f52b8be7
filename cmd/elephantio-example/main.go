// Command elephantio-example connects to a Socket.IO server, emits one
// event, waits for a reply, and disconnects. It exists to exercise the
// library end to end; it is not part of the core protocol stack.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	elephantio "github.com/tihiydo/elephant.io"
)

func main() {
	url := flag.String("url", "http://localhost:3000/socket.io/", "Socket.IO server URL")
	namespace := flag.String("namespace", "/", "namespace to join")
	event := flag.String("event", "message", "event name to emit")
	payload := flag.String("payload", "hello", "event argument")
	wait := flag.String("wait", "ack", "event name to wait for before exiting")
	flag.Parse()

	if err := run(*url, *namespace, *event, *payload, *wait); err != nil {
		fmt.Fprintln(os.Stderr, "elephantio-example:", err)
		os.Exit(1)
	}
}

func run(url, namespace, event, payload, wait string) error {
	opts := elephantio.NewOptions().SetTimeout(10 * time.Second)
	client, err := elephantio.NewClient(url, opts)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close(ctx)

	if err := client.Of(ctx, namespace); err != nil {
		return fmt.Errorf("switch namespace: %w", err)
	}

	if _, err := client.Emit(ctx, event, payload); err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	reply, err := client.Wait(ctx, wait)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}

	fmt.Printf("received %q: %v\n", reply.Event, reply.Data)
	return nil
}
