package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grailbio/base/log"
)

// terminationSignals is the signal set the server watches for, mirroring
// the reference implementation's signal handler registration: keyboard
// interrupts, process termination/abort, common fault signals (logged,
// since Go's runtime already converts most of these into a panic before a
// handler could run), and the resource-limit and pipe signals a long-lived
// socket server is likely to see.
var terminationSignals = []os.Signal{
	os.Interrupt, // SIGINT
	syscall.SIGTERM,
	syscall.SIGABRT,
	syscall.SIGSEGV,
	syscall.SIGFPE,
	syscall.SIGILL,
	syscall.SIGBUS,
	syscall.SIGQUIT,
	syscall.SIGHUP,
	syscall.SIGALRM,
	syscall.SIGXCPU,
	syscall.SIGXFSZ,
	syscall.SIGPIPE,
}

// watchSignals registers terminationSignals and calls cancel on the first
// one received, after logging it. It returns a function that stops
// watching, for use with defer.
func watchSignals(cancel context.CancelFunc) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, terminationSignals...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("server: received signal %v, shutting down", sig)
			cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
