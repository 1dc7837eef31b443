package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/supersonic-app/nowplaying-bridge/backend/util"
)

// EventHandler consumes decoded events. NowPlayingManager implements it.
type EventHandler interface {
	HandleEvent(Event) bool
}

// EventReader reads line-delimited JSON events and hands them to an EventHandler.
type EventReader struct {
	r       io.Reader
	handler EventHandler
	done    chan struct{}

	// serializes handler calls between stdin and injected lines
	procMu sync.Mutex

	verbose atomic.Bool
	dropped atomic.Int64
	ignored atomic.Int64
}

func NewEventReader(r io.Reader, handler EventHandler) *EventReader {
	return &EventReader{
		r:       r,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start begins reading on a new goroutine. Done is closed when the
// input ends, a read fails, or ctx is cancelled.
func (e *EventReader) Start(ctx context.Context) {
	go func() {
		defer close(e.done)
		if err := e.readAll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event input closed: %v", err)
		}
	}()
}

func (e *EventReader) SetVerbose(v bool) {
	e.verbose.Store(v)
}

func (e *EventReader) Done() <-chan struct{} {
	return e.done
}

// Dropped returns the number of lines that were not valid JSON objects.
func (e *EventReader) Dropped() int64 {
	return e.dropped.Load()
}

// Ignored returns the number of well-formed events with an unknown type.
func (e *EventReader) Ignored() int64 {
	return e.ignored.Load()
}

func (e *EventReader) readAll(ctx context.Context) error {
	br := bufio.NewReader(util.NewCancellableReader(ctx, e.r))
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			e.ProcessLine(line)
		}
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// ProcessLine decodes and dispatches a single line, reporting whether it
// held a recognized event. Malformed lines are dropped without error.
func (e *EventReader) ProcessLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		e.dropped.Add(1)
		if e.verbose.Load() {
			log.Printf("dropping malformed line: %v", err)
		}
		return false
	}
	e.procMu.Lock()
	recognized := e.handler.HandleEvent(ev)
	e.procMu.Unlock()
	if !recognized {
		e.ignored.Add(1)
		if e.verbose.Load() {
			log.Printf("ignoring event type %q", ev.Type)
		}
	}
	return recognized
}
