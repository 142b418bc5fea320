package client

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrNoEndpoints is returned when no candidate base URL is configured
var ErrNoEndpoints = errors.New("no API endpoints configured")

// Endpoints is the ordered list of candidate base URLs and the failover
// cursor into it. The list never changes after construction and the cursor
// only moves forward.
type Endpoints struct {
	candidates []string
	cursor     atomic.Int32
	pinned     bool
}

// NewEndpoints creates a failover list starting at the first candidate
func NewEndpoints(candidates []string) (*Endpoints, error) {
	list := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimRight(strings.TrimSpace(c), "/"); c != "" {
			list = append(list, c)
		}
	}
	if len(list) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Endpoints{candidates: list}, nil
}

// NewDevEndpoints pins every request to a single local URL. It never fails over.
func NewDevEndpoints(url string) *Endpoints {
	return &Endpoints{candidates: []string{strings.TrimRight(url, "/")}, pinned: true}
}

// Current returns the cursor position and the base URL it points at
func (e *Endpoints) Current() (int, string) {
	i := int(e.cursor.Load())
	return i, e.candidates[i]
}

// Candidates returns a copy of the candidate list
func (e *Endpoints) Candidates() []string {
	return append([]string(nil), e.candidates...)
}

// Advance moves the cursor one step past from. It reports false when there is
// nothing left to try. A concurrent caller that already advanced past from
// counts as an advance, so two failures at the same position move the cursor
// once.
func (e *Endpoints) Advance(from int) bool {
	if e.pinned || from+1 >= len(e.candidates) {
		return false
	}
	if e.cursor.CompareAndSwap(int32(from), int32(from+1)) {
		return true
	}
	return int(e.cursor.Load()) > from
}
