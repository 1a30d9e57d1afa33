// Package registrar implements Component K: the thread-safe struct-id to
// handler table the dispatcher consults on every request. Adapted from the
// teacher repo's plugin registry
// (_examples/Generativebots-ocx-backend-go-svc/pkg/plugins/registry.go),
// which maps a payload to the first plugin willing to parse it under an
// RWMutex; this port keys by struct id instead of trying each entry in
// turn, adds multicast fan-out, and replaces a plain RLock'd lookup with a
// per-entry acquisition count so a handler invocation can outlive the
// brief registry lock that found it, while a concurrent Unregister still
// waits for any in-flight acquisition to drain.
package registrar

import (
	"io"
	"sync"

	"github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/status"
)

// Handler is whatever a registered struct id routes to. Each server-side
// data handler implements it; the dispatcher (Component L) invokes it.
type Handler interface {
	// MinInputInterfaceVersion is the handler's own floor, possibly
	// stricter than the input struct's MinSupportedVersion. The dispatcher
	// rejects a request below it with a Status reply before ever calling
	// InputMeta or HandleData.
	MinInputInterfaceVersion() uint32
	// InputMeta identifies and version-bounds the struct HandleData reads
	// from its io.Reader, letting the dispatcher run context.ValidateForStruct
	// and arm version conversion before invoking the handler.
	InputMeta() context.StructMeta
	// OutputMeta identifies and version-bounds the struct HandleData writes
	// to its io.Writer, letting the dispatcher frame the reply's data header
	// ahead of the handler's own output bytes. Return nil for a handler with
	// no output; the dispatcher then folds the accumulated status into a
	// plain Status reply instead of a Data frame.
	OutputMeta() context.StructMeta
	HandleData(clientID string, ctx *context.DataContext, r io.Reader, w io.Writer) status.Status
}

type entry struct {
	handler Handler
	service string
	wg      sync.WaitGroup
}

// Acquired is a held reference to a registered handler. Release must be
// called exactly once to let a concurrent Unregister proceed.
type Acquired struct {
	e       *entry
	Handler Handler
}

// Release drops this acquisition's hold on the entry.
func (a *Acquired) Release() { a.e.wg.Done() }

// Registrar owns the struct-id -> handler(s) multimap.
type Registrar struct {
	mu        sync.RWMutex
	entries   map[context.StructID][]*entry
	multicast map[context.StructID]bool
}

// New returns an empty registrar.
func New() *Registrar {
	return &Registrar{
		entries:   make(map[context.StructID][]*entry),
		multicast: make(map[context.StructID]bool),
	}
}

// RegisterHandler attaches handler to id under service's ownership. A
// non-multicast id accepts at most one handler; registering a second one
// (or mixing multicast and non-multicast registrations for the same id)
// fails with ErrorAlreadyInited.
func (r *Registrar) RegisterHandler(id context.StructID, multicast bool, service string, handler Handler) status.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.entries[id]
	if len(existing) > 0 {
		if !multicast || !r.multicast[id] {
			return status.ErrorAlreadyInited
		}
	}
	r.entries[id] = append(existing, &entry{handler: handler, service: service})
	r.multicast[id] = multicast
	return status.NoError
}

// UnregisterHandler removes one handler from id's entry list, waiting for
// any in-flight acquisition of it to release first.
func (r *Registrar) UnregisterHandler(id context.StructID, handler Handler) status.Status {
	r.mu.Lock()
	list := r.entries[id]
	idx := -1
	for i, e := range list {
		if e.handler == handler {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return status.ErrorNoSuchHandler
	}
	removed := list[idx]
	r.entries[id] = append(list[:idx:idx], list[idx+1:]...)
	if len(r.entries[id]) == 0 {
		delete(r.entries, id)
		delete(r.multicast, id)
	}
	r.mu.Unlock()

	removed.wg.Wait()
	return status.NoError
}

// UnregisterService removes every handler owned by service, across all
// struct ids, waiting for each one's in-flight acquisitions to drain.
func (r *Registrar) UnregisterService(service string) {
	r.mu.Lock()
	var removed []*entry
	for id, list := range r.entries {
		kept := list[:0:0]
		for _, e := range list {
			if e.service == service {
				removed = append(removed, e)
			} else {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(r.entries, id)
			delete(r.multicast, id)
		} else {
			r.entries[id] = kept
		}
	}
	r.mu.Unlock()

	for _, e := range removed {
		e.wg.Wait()
	}
}

// AcquireHandler returns the single handler registered for id. It returns
// ErrorNoSuchHandler for zero entries and ErrorMoreEntires for more than
// one, in which case the caller should use AcquireHandlers instead.
func (r *Registrar) AcquireHandler(id context.StructID) (*Acquired, status.Status) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.entries[id]
	switch len(list) {
	case 0:
		return nil, status.ErrorNoSuchHandler
	case 1:
		e := list[0]
		e.wg.Add(1)
		return &Acquired{e: e, Handler: e.handler}, status.NoError
	default:
		return nil, status.ErrorMoreEntires
	}
}

// AcquireHandlers returns every handler registered for id, for the
// multicast-delivery path.
func (r *Registrar) AcquireHandlers(id context.StructID) ([]*Acquired, status.Status) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.entries[id]
	if len(list) == 0 {
		return nil, status.ErrorNoSuchHandler
	}
	out := make([]*Acquired, len(list))
	for i, e := range list {
		e.wg.Add(1)
		out[i] = &Acquired{e: e, Handler: e.handler}
	}
	return out, status.NoError
}
