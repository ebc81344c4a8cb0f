// Package view derives per-screen state from discovery results. Views are
// pure values: no fetching, no caching, no mutation. Presentation decides
// how each state is rendered; this package only decides what the state is.
package view

import (
	"errors"

	"github.com/lovebridge/lovelock/internal/lock"
)

// State is the overall indicator of a view.
type State string

const (
	// StateLoaded means the view holds at least one lock.
	StateLoaded State = "loaded"

	// StateEmpty means the query succeeded and matched nothing. Never an
	// error: "no locks found" is a valid outcome.
	StateEmpty State = "empty"

	// StateNotFound means a by-ID search missed. Indeterminate for a
	// previously-known lock: destroyed and never-existed look the same.
	StateNotFound State = "not_found"

	// StateFailed means the underlying query failed.
	StateFailed State = "failed"
)

// Entry is one lock plus the viewer's capability on it.
type Entry struct {
	lock.Lock

	// CanAct is true iff the viewer may still accept or decline.
	CanAct bool `json:"can_act"`
}

// View is one screen's worth of derived state.
type View struct {
	Locks []Entry
	State State
	Err   error
}

// derive builds a View from a discovery result for the given viewer.
func derive(locks []lock.Lock, err error, viewer string) View {
	if err != nil {
		if errors.Is(err, lock.ErrNotFound) {
			return View{State: StateNotFound}
		}
		return View{State: StateFailed, Err: err}
	}
	if len(locks) == 0 {
		return View{State: StateEmpty}
	}

	entries := make([]Entry, 0, len(locks))
	for _, l := range locks {
		entries = append(entries, Entry{Lock: l, CanAct: l.PendingFor(viewer)})
	}
	return View{Locks: entries, State: StateLoaded}
}

// PendingForMe is the "my pending locks" screen: locks already
// role-filtered by discovery to the viewer's pending set.
func PendingForMe(locks []lock.Lock, err error, viewer string) View {
	return derive(locks, err, viewer)
}

// OwnedLocks is the "everything this address holds" screen: pending and
// sealed locks alike, with the owner's remaining capability per lock.
func OwnedLocks(locks []lock.Lock, err error, owner string) View {
	return derive(locks, err, owner)
}

// SearchResult is the by-ID search screen: zero or one entries.
func SearchResult(l *lock.Lock, err error, viewer string) View {
	if err != nil {
		return derive(nil, err, viewer)
	}
	if l == nil {
		return View{State: StateNotFound}
	}
	return derive([]lock.Lock{*l}, nil, viewer)
}

// RegistryLocks is the bridge registry screen. Everything the registry
// owns is closed, so CanAct is false throughout.
func RegistryLocks(locks []lock.Lock, err error, viewer string) View {
	return derive(locks, err, viewer)
}
