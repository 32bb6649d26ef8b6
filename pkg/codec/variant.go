package codec

import (
	"fmt"
	"sort"

	"github.com/ssargent/locus/pkg/stream"
)

// Kind identifies a record type inside a tagged variant
type Kind uint8

type registration struct {
	name    string
	factory func() Storable
}

// Registry maps variant kinds to record constructors. Register everything
// before sharing the registry between goroutines.
type Registry struct {
	kinds map[Kind]registration
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]registration)}
}

// Register adds a kind. Registering the same kind twice is an error.
func (reg *Registry) Register(kind Kind, name string, factory func() Storable) error {
	if factory == nil {
		return fmt.Errorf("kind %d (%s): nil factory", kind, name)
	}
	if existing, ok := reg.kinds[kind]; ok {
		return fmt.Errorf("kind %d already registered as %s", kind, existing.name)
	}
	reg.kinds[kind] = registration{name: name, factory: factory}
	return nil
}

// MustRegister is like Register but panics on error
func (reg *Registry) MustRegister(kind Kind, name string, factory func() Storable) {
	if err := reg.Register(kind, name, factory); err != nil {
		panic(err)
	}
}

// Name returns the registered name of kind
func (reg *Registry) Name(kind Kind) (string, bool) {
	r, ok := reg.kinds[kind]
	return r.name, ok
}

// Kinds returns the registered kinds in ascending order
func (reg *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(reg.kinds))
	for k := range reg.kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// WriteVariant writes the kind tag followed by the record's frame
func WriteVariant(w *stream.Writer, kind Kind, rec Storable) error {
	w.WriteUint8(uint8(kind))
	return Write(w, rec)
}

// ReadVariant reads a tagged variant. For a kind the registry does not know,
// the frame is skipped and a nil record is returned without error. A known
// kind whose payload fails returns a *PayloadError, and the next variant can
// still be read.
func (reg *Registry) ReadVariant(r *stream.Reader) (Kind, Storable, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return 0, nil, frameErrf(nil, r.Offset(), 0, 0, err, "short variant tag")
	}
	kind := Kind(tag)

	entry, ok := reg.kinds[kind]
	if !ok {
		if err := Skip(r); err != nil {
			return kind, nil, err
		}
		return kind, nil, nil
	}

	rec := entry.factory()
	headerOK, err := readFrame(r, rec)
	if err != nil {
		if headerOK {
			return kind, nil, &PayloadError{Err: err}
		}
		return kind, nil, err
	}
	return kind, rec, nil
}
