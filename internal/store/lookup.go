package store

// Lookup is the outcome of resolving a reference: either the record was
// Found, or the id is Dangling (deleted, never existed, or not ours).
type Lookup[T any] struct {
	rec   T
	found bool
}

func Found[T any](rec T) Lookup[T] { return Lookup[T]{rec: rec, found: true} }

func Dangling[T any]() Lookup[T] { return Lookup[T]{} }

func (l Lookup[T]) Get() (T, bool) { return l.rec, l.found }

func (l Lookup[T]) IsFound() bool { return l.found }

// Label maps a found record through name, or returns fallback for a
// dangling one. An empty name also yields fallback.
func (l Lookup[T]) Label(name func(T) string, fallback string) string {
	if !l.found {
		return fallback
	}
	if s := name(l.rec); s != "" {
		return s
	}
	return fallback
}

// Index resolves ids against an in-memory slice of records.
type Index[T Record] map[string]T

func NewIndex[T Record](recs []T) Index[T] {
	idx := make(Index[T], len(recs))
	for _, r := range recs {
		idx[r.RecordID()] = r
	}
	return idx
}

func (idx Index[T]) Lookup(id string) Lookup[T] {
	if rec, ok := idx[id]; ok {
		return Found(rec)
	}
	return Dangling[T]()
}
