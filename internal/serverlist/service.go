// Package serverlist manages the ordered list of servers the host can
// connect to: CRUD by index, connecting on the owning thread, and pinging
// every entry when the list is shown.
package serverlist

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/mainthread"
)

// UnknownServerName labels the transient entry created when connecting to an
// address that is not in the list.
const UnknownServerName = "Unknown Server"

// Indexed is an entry together with its list position.
type Indexed struct {
	Index int
	Entry domain.ServerEntry
}

type Service struct {
	repo      domain.ServerRepository
	pinger    *Pinger
	executor  *mainthread.Executor
	connector domain.Connector

	mu      sync.Mutex
	entries []domain.ServerEntry
}

// NewService loads the stored list. pinger may be nil, in which case List
// returns entries with their last known status.
func NewService(ctx context.Context, repo domain.ServerRepository, pinger *Pinger, executor *mainthread.Executor, connector domain.Connector) (*Service, error) {
	entries, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load server list: %w", err)
	}
	return &Service{
		repo:      repo,
		pinger:    pinger,
		executor:  executor,
		connector: connector,
		entries:   entries,
	}, nil
}

// List returns every entry with its index and starts a fresh ping of all of
// them. Entries come back immediately with PingPending; results land in the
// list as they arrive.
func (s *Service) List(ctx context.Context) []Indexed {
	s.mu.Lock()
	for i := range s.entries {
		s.entries[i].Online = true
		s.entries[i].Ping = domain.PingPending
	}
	out := s.snapshot()
	s.mu.Unlock()

	if s.pinger != nil {
		s.pinger.PingAll(ctx, addresses(out), s.applyStatus)
	}
	return out
}

// Entries returns the list without pinging.
func (s *Service) Entries() []Indexed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Service) snapshot() []Indexed {
	out := make([]Indexed, len(s.entries))
	for i, e := range s.entries {
		out[i] = Indexed{Index: i, Entry: e}
	}
	return out
}

func addresses(entries []Indexed) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !slices.Contains(out, e.Entry.Address) {
			out = append(out, e.Entry.Address)
		}
	}
	return out
}

func (s *Service) applyStatus(address string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Address == address {
			status.apply(&s.entries[i])
		}
	}
}

// GetByAddress finds the first entry with the given address.
func (s *Service) GetByAddress(address string) (domain.ServerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if strings.EqualFold(e.Address, address) {
			return e, true
		}
	}
	return domain.ServerEntry{}, false
}

// Connect joins the server at address. An address that is not in the list
// gets a transient entry that is never stored.
func (s *Service) Connect(address string) (domain.ServerEntry, error) {
	entry, ok := s.GetByAddress(address)
	if !ok {
		entry = domain.ServerEntry{Name: UnknownServerName, Address: address}
		slog.Info("Connecting to unlisted server", "address", address)
	}

	if err := s.executor.Schedule(func() { s.connector.Connect(entry) }); err != nil {
		return domain.ServerEntry{}, fmt.Errorf("failed to schedule connect to %s: %w", address, err)
	}
	return entry, nil
}

func (s *Service) Add(ctx context.Context, name, address string) error {
	return s.mutate(ctx, func(entries []domain.ServerEntry) ([]domain.ServerEntry, error) {
		return append(entries, domain.ServerEntry{Name: name, Address: address}), nil
	})
}

func (s *Service) Remove(ctx context.Context, index int) error {
	return s.mutate(ctx, func(entries []domain.ServerEntry) ([]domain.ServerEntry, error) {
		if err := checkIndex(index, len(entries)); err != nil {
			return nil, err
		}
		return slices.Delete(entries, index, index+1), nil
	})
}

func (s *Service) Edit(ctx context.Context, index int, name, address string) error {
	return s.mutate(ctx, func(entries []domain.ServerEntry) ([]domain.ServerEntry, error) {
		if err := checkIndex(index, len(entries)); err != nil {
			return nil, err
		}
		entries[index].Name = name
		entries[index].Address = address
		return entries, nil
	})
}

func (s *Service) Swap(ctx context.Context, from, to int) error {
	return s.mutate(ctx, func(entries []domain.ServerEntry) ([]domain.ServerEntry, error) {
		if err := checkIndex(from, len(entries)); err != nil {
			return nil, err
		}
		if err := checkIndex(to, len(entries)); err != nil {
			return nil, err
		}
		entries[from], entries[to] = entries[to], entries[from]
		return entries, nil
	})
}

// Reorder rearranges the list so that position i holds the entry previously
// at order[i]. order must be a permutation of the current indices.
func (s *Service) Reorder(ctx context.Context, order []int) error {
	return s.mutate(ctx, func(entries []domain.ServerEntry) ([]domain.ServerEntry, error) {
		if !isPermutation(order, len(entries)) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidOrder, order)
		}
		out := make([]domain.ServerEntry, len(entries))
		for i, from := range order {
			out[i] = entries[from]
		}
		return out, nil
	})
}

// mutate applies fn to a copy of the list and stores the result. The list is
// only replaced once the repository accepted it.
func (s *Service) mutate(ctx context.Context, fn func([]domain.ServerEntry) ([]domain.ServerEntry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(slices.Clone(s.entries))
	if err != nil {
		return err
	}
	if err := s.repo.SaveAll(ctx, next); err != nil {
		return fmt.Errorf("failed to save server list: %w", err)
	}
	s.entries = next
	return nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", domain.ErrIndexOutOfRange, index, n)
	}
	return nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}
