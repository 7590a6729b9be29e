package validation

import (
	"sync"

	"go-data-sentinel/internal/model"
)

// Predicate is a named, pure per-row check used by custom-predicate rules.
// Predicates are registered by trusted code at startup; a rule referencing
// an unregistered predicate fails at ruleset construction time.
type Predicate func(rec model.GenericRecord) bool

var (
	predMu     sync.RWMutex
	predicates = make(map[string]Predicate)
)

// RegisterPredicate makes a predicate available to custom-predicate rules
// under the given name. Registering the same name twice overwrites.
func RegisterPredicate(name string, fn Predicate) {
	predMu.Lock()
	defer predMu.Unlock()
	predicates[name] = fn
}

func lookupPredicate(name string) (Predicate, bool) {
	predMu.RLock()
	defer predMu.RUnlock()
	fn, ok := predicates[name]
	return fn, ok
}
