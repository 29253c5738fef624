// Package server implements the query server's request pipeline: accept a
// connection, parse the fixed wire header, resolve the named methylome
// through the bounded cache, decode the query body, compute levels, and
// write back the framed response. See spec.md §5.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/transferase/internal/methylomeset"
)

const recentEventLogCapacity = 256

// Server accepts connections on a single listener and services them
// concurrently against a shared methylome set.
type Server struct {
	set *methylomeset.Set

	mu     sync.Mutex
	events *ringLog
}

// New returns a Server that resolves methylomes through set.
func New(set *methylomeset.Set) *Server {
	return &Server{set: set, events: newRingLog(recentEventLogCapacity)}
}

// Serve accepts connections on ln until ctx is canceled or Accept fails.
// Each connection is serviced in its own goroutine; Serve waits for all
// in-flight connections to finish before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := watchSignals(cancel)
	defer stop()

	var wg sync.WaitGroup
	acceptErr := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleConn(ctx, conn)
			}()
		}
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		wg.Wait()
		return ctx.Err()
	case err := <-acceptErr:
		wg.Wait()
		return err
	}
}

// ListenAndServe is a convenience wrapper that opens a TCP listener on
// addr and calls Serve.
func ListenAndServe(ctx context.Context, addr string, set *methylomeset.Set) error {
	ln, err := Listen(ctx, addr)
	if err != nil {
		return err
	}
	log.Printf("server: listening on %s", addr)
	return New(set).Serve(ctx, ln)
}

// logEvent records msg in the server's bounded recent-activity log.
func (s *Server) logEvent(msg string) {
	s.mu.Lock()
	s.events.pushBack(msg)
	s.mu.Unlock()
}

// RecentEvents returns the retained recent-activity log entries, oldest
// first.
func (s *Server) RecentEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.entries()
}
