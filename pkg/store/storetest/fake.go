// Package storetest provides a scripted in-memory Store for unit tests.
// Responses are matched by query fragment, and every executed statement is
// recorded with its bound parameters so tests can assert that values travel
// as parameters rather than interpolated text.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
)

// Call records one executed statement
type Call struct {
	Query  string
	Params map[string]any
	Write  bool
}

type stub struct {
	fragment string
	records  []store.Record
	err      error
}

// FakeStore is a scripted store.Store implementation
type FakeStore struct {
	mu      sync.Mutex
	stubs   []stub
	calls   []Call
	PingErr error
	Closed  bool
}

// New creates an empty fake store. Unstubbed queries return no records,
// which models "nothing matched" rather than a failure.
func New() *FakeStore {
	return &FakeStore{}
}

// StubQuery returns the given records for any query containing fragment
func (f *FakeStore) StubQuery(fragment string, records []store.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{fragment: fragment, records: records})
}

// FailQuery makes any query containing fragment fail with err
func (f *FakeStore) FailQuery(fragment string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{fragment: fragment, err: err})
}

// Calls returns a copy of all recorded statements
func (f *FakeStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// WriteCalls returns only the recorded write statements
func (f *FakeStore) WriteCalls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range f.calls {
		if c.Write {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeStore) match(query string) *stub {
	for i := range f.stubs {
		if strings.Contains(query, f.stubs[i].fragment) {
			return &f.stubs[i]
		}
	}
	return nil
}

// Execute implements store.Store
func (f *FakeStore) Execute(ctx context.Context, query string, params map[string]any) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Query: query, Params: params})

	if s := f.match(query); s != nil {
		if s.err != nil {
			return nil, s.err
		}
		return s.records, nil
	}
	return nil, nil
}

// ExecuteSingle implements store.Store
func (f *FakeStore) ExecuteSingle(ctx context.Context, query string, params map[string]any) (store.Record, error) {
	records, err := f.Execute(ctx, query, params)
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%w: got %d records", store.ErrAmbiguousResult, len(records))
	}
}

// ExecuteWrite implements store.Store
func (f *FakeStore) ExecuteWrite(ctx context.Context, query string, params map[string]any) (store.Summary, error) {
	if err := ctx.Err(); err != nil {
		return store.Summary{}, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Query: query, Params: params, Write: true})

	if s := f.match(query); s != nil && s.err != nil {
		return store.Summary{}, s.err
	}
	return store.Summary{}, nil
}

// Ping implements store.Store
func (f *FakeStore) Ping(ctx context.Context) error {
	return f.PingErr
}

// Close implements store.Store
func (f *FakeStore) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
