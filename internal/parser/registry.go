package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps bank names to parser implementations. Keys are
// case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds p under its BankName. Registering the same bank twice is an error.
func (r *Registry) Register(p Parser) error {
	key := strings.ToUpper(p.BankName())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parsers[key]; exists {
		return fmt.Errorf("parser already registered for bank %q", key)
	}
	r.parsers[key] = p
	return nil
}

// Get returns the parser for bank.
func (r *Registry) Get(bank string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[strings.ToUpper(strings.TrimSpace(bank))]
	if !ok {
		return nil, fmt.Errorf("unsupported bank: %q", bank)
	}
	return p, nil
}

// AvailableBanks returns the registered bank names, sorted.
func (r *Registry) AvailableBanks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	banks := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		banks = append(banks, k)
	}
	sort.Strings(banks)
	return banks
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding every bundled parser.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})
	return defaultRegistry
}

// NewDefaultRegistry builds a fresh registry with every bundled parser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Parser{
		&BBVAParser{},
		&BanorteParser{},
		&SantanderParser{},
		&ScotiabankParser{},
		&VantageBankParser{},
		&HSBCParser{},
	} {
		// Names are distinct constants; a failure here is a programming error.
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}
