package reloader

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// OnSIGHUP calls fn for every SIGHUP until ctx is cancelled.
func OnSIGHUP(ctx context.Context, fn func()) {
	Watch(ctx, fn, syscall.SIGHUP)
}

// Watch calls fn each time one of sigs arrives. Delivery stops with ctx.
func Watch(ctx context.Context, fn func(), sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				fn()
			}
		}
	}()
}
