package rule

import (
	"sync"
)

// Source provides shared access to a [RuleSet] that can be refreshed by
// discarding and reloading. Readers always observe a complete set: a failed
// reload leaves the previous set in place.
type Source struct {
	set  *RuleSet
	root string
	opts []LoadOpt
	mu   sync.RWMutex
}

// NewSource loads the initial [RuleSet] for root.
func NewSource(root string, opts ...LoadOpt) (*Source, error) {
	set, err := Load(root, opts...)
	if err != nil {
		return nil, err
	}

	return &Source{
		root: root,
		opts: opts,
		set:  set,
	}, nil
}

// Root returns the rules root directory.
func (s *Source) Root() string {
	return s.root
}

// Get returns the current [RuleSet].
func (s *Source) Get() *RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.set
}

// Reload discards the current [RuleSet] and loads a fresh one. On error the
// current set is kept.
func (s *Source) Reload() (*RuleSet, error) {
	set, err := Load(s.root, s.opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.set = set
	s.mu.Unlock()

	return set, nil
}

func (s *Source) extensions() []string {
	return resolveLoadOptions(s.opts).extensions
}
