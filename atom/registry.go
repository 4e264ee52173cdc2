package atom

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"

	"silk/canon"
	"silk/css"
)

var (
	ErrHashCollision      = errors.New("hash collision")
	ErrIdentifierMismatch = errors.New("identifier mismatch")
)

// InvariantError reports broken one-rule-per-identifier invariant. It is
// always fatal for the compilation it happened in.
type InvariantError struct {
	ID       Identifier
	Existing Key
	Incoming Key
	Err      error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("atom %q: %v: %s vs %s", e.ID, e.Err, e.Existing, e.Incoming)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Entry is exported registry record, the unit of registry persistence.
type Entry struct {
	Key   Key        `json:"key" yaml:"key" ion:"key" cbor:"key"`
	ID    Identifier `json:"id" yaml:"id" ion:"id" cbor:"id"`
	Rule  string     `json:"rule" yaml:"rule" ion:"rule" cbor:"rule"`
	Usage int        `json:"usage" yaml:"usage" ion:"usage" cbor:"usage"`
}

// Stats summarizes registry content.
type Stats struct {
	UniqueAtoms  int
	TotalUsage   int
	AverageReuse float64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d atoms, %d uses, %.2f average reuse", s.UniqueAtoms, s.TotalUsage, s.AverageReuse)
}

type record struct {
	id    Identifier
	rule  css.Rule
	text  string
	usage int
}

// Registry owns key to identifier mapping and usage counts. Instances are
// independent, all methods are safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	namer *Namer
	atoms *orderedmap.OrderedMap[Key, *record]
	byID  map[Identifier]Key
	log   *zap.Logger
}

// NewRegistry creates empty registry. Distinct keys sharing identifier are
// always rejected with ErrHashCollision.
func NewRegistry(namer *Namer, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		namer: namer,
		atoms: orderedmap.NewOrderedMap[Key, *record](),
		byID:  make(map[Identifier]Key),
		log:   log.Named("registry"),
	}
}

// Namer returns namer used by registry.
func (r *Registry) Namer() *Namer {
	return r.namer
}

// Register returns identifier of the declaration, creating atom on first
// sight and counting usage otherwise.
func (r *Registry) Register(d canon.Declaration) (Identifier, error) {
	key := NewKey(d)

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.atoms.Get(key); ok {
		rec.usage++
		return rec.id, nil
	}

	id := r.namer.Name(d)
	if err := r.checkLocked(id, key); err != nil {
		return "", err
	}

	rule := RuleFor(id, d)
	r.atoms.Set(key, &record{id: id, rule: rule, text: rule.String(), usage: 1})
	r.byID[id] = key
	return id, nil
}

// RegisterAll registers declarations in order, stopping at first error.
func (r *Registry) RegisterAll(decls []canon.Declaration) ([]Identifier, error) {
	ids := make([]Identifier, 0, len(decls))
	for _, d := range decls {
		id, err := r.Register(d)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *Registry) checkLocked(id Identifier, key Key) error {
	if existing, ok := r.byID[id]; ok && existing != key {
		r.log.Error("Identifier collision", zap.String("id", string(id)), zap.Stringer("existing", existing), zap.Stringer("incoming", key))
		return &InvariantError{ID: id, Existing: existing, Incoming: key, Err: ErrHashCollision}
	}
	return nil
}

// RuleFor renders atomic rule of the declaration under identifier:
// ".id:hover{prop:value}" wrapped by context at-rules.
func RuleFor(id Identifier, d canon.Declaration) css.Rule {
	return css.NewRule("."+string(id)+d.Context.Selector, d.Context.Wrappers,
		css.Declaration{Property: d.Property, Value: d.Value})
}

// GenerateCSS returns one rule per atom in insertion order, newline separated.
func (r *Registry) GenerateCSS() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, rec := range r.atoms.AllFromFront() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(rec.text)
	}
	return b.String()
}

// Rules returns atom rules in insertion order.
func (r *Registry) Rules() []css.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()

	rules := make([]css.Rule, 0, r.atoms.Len())
	for _, rec := range r.atoms.AllFromFront() {
		rules = append(rules, rec.rule)
	}
	return rules
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{UniqueAtoms: r.atoms.Len()}
	for _, rec := range r.atoms.AllFromFront() {
		s.TotalUsage += rec.usage
	}
	if s.UniqueAtoms > 0 {
		s.AverageReuse = float64(s.TotalUsage) / float64(s.UniqueAtoms)
	}
	return s
}

// Len returns number of atoms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.atoms.Len()
}

// Reset drops all atoms.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.atoms = orderedmap.NewOrderedMap[Key, *record]()
	r.byID = make(map[Identifier]Key)
}

// Lookup returns atom by identifier.
func (r *Registry) Lookup(id Identifier) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	rec, ok := r.atoms.Get(key)
	if !ok {
		return Entry{}, false
	}
	return Entry{Key: key, ID: rec.id, Rule: rec.text, Usage: rec.usage}, true
}

// Export returns all atoms in insertion order.
func (r *Registry) Export() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, r.atoms.Len())
	for key, rec := range r.atoms.AllFromFront() {
		entries = append(entries, Entry{Key: key, ID: rec.id, Rule: rec.text, Usage: rec.usage})
	}
	return entries
}

// Import adds exported entries. Entries are trusted: identifiers are not
// recomputed and rule text is taken as is. Usage of already known keys is
// summed. Nothing is imported when any entry conflicts with registry content.
func (r *Registry) Import(entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// entries may repeat keys, check against what registry will look like
	pending := make(map[Key]Identifier, len(entries))
	pendingIDs := make(map[Identifier]Key, len(entries))
	for _, e := range entries {
		id, known := pending[e.Key]
		if !known {
			if rec, ok := r.atoms.Get(e.Key); ok {
				id, known = rec.id, true
			}
		}
		if known && id != e.ID {
			return &InvariantError{ID: e.ID, Existing: e.Key, Incoming: e.Key, Err: ErrIdentifierMismatch}
		}
		if existing, ok := r.byID[e.ID]; ok && existing != e.Key {
			return &InvariantError{ID: e.ID, Existing: existing, Incoming: e.Key, Err: ErrHashCollision}
		}
		if existing, ok := pendingIDs[e.ID]; ok && existing != e.Key {
			return &InvariantError{ID: e.ID, Existing: existing, Incoming: e.Key, Err: ErrHashCollision}
		}
		pending[e.Key] = e.ID
		pendingIDs[e.ID] = e.Key
	}

	added := 0
	for _, e := range entries {
		usage := max(e.Usage, 1)
		if rec, ok := r.atoms.Get(e.Key); ok {
			rec.usage += usage
			continue
		}
		rule := RuleFor(e.ID, e.Key.Declaration())
		text := e.Rule
		if text == "" {
			text = rule.String()
		}
		r.atoms.Set(e.Key, &record{id: e.ID, rule: rule, text: text, usage: usage})
		r.byID[e.ID] = e.Key
		added++
	}
	r.log.Debug("Registry imported", zap.Int("entries", len(entries)), zap.Int("added", added))
	return nil
}

// Merge imports all atoms of another registry.
func (r *Registry) Merge(other *Registry) error {
	if other == r {
		return nil
	}
	return r.Import(other.Export())
}
