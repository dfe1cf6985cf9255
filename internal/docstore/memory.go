package docstore

import (
	"context"
	"math/rand/v2"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore keeps documents in-process. It honours the same contract as
// the database backends, unique indexes included, and is used by tests and
// the "memory" store driver.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	indexes     map[string][]Index
}

type memoryCollection struct {
	order []string
	docs  map[string]bson.Raw
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
		indexes:     make(map[string][]Index),
	}
}

func (m *MemoryStore) collection(name string) *memoryCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]bson.Raw)}
		m.collections[name] = c
	}
	return c
}

func (m *MemoryStore) Insert(_ context.Context, collection string, doc any) (string, error) {
	d, id, err := withID(doc, func() string { return bson.NewObjectID().Hex() })
	if err != nil {
		return "", &Error{Op: "insert", Code: CodeValidation, Err: err}
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return "", &Error{Op: "insert", Code: CodeValidation, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if _, exists := c.docs[id]; exists {
		return "", &Error{Op: "insert", Code: CodeDuplicateKey}
	}
	if err := m.checkUnique(collection, id, raw); err != nil {
		return "", &Error{Op: "insert", Code: CodeDuplicateKey, Err: err}
	}

	c.docs[id] = raw
	c.order = append(c.order, id)
	return id, nil
}

func (m *MemoryStore) FindByID(_ context.Context, collection, id string) (bson.Raw, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	raw, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRaw(raw), nil
}

func (m *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter) (bson.Raw, error) {
	docs, err := m.find(collection, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (m *MemoryStore) FindMany(_ context.Context, collection string, filter Filter) ([]bson.Raw, error) {
	return m.find(collection, filter, 0)
}

// find returns matches in insertion order; limit 0 means no limit.
func (m *MemoryStore) find(collection string, filter Filter, limit int) ([]bson.Raw, error) {
	f, err := bson.Marshal(bson.M(filter))
	if err != nil {
		return nil, &Error{Op: "find", Code: CodeValidation, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []bson.Raw{}
	c, ok := m.collections[collection]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		raw := c.docs[id]
		ok, err := matches(raw, f)
		if err != nil {
			return nil, &Error{Op: "find", Code: CodeValidation, Err: err}
		}
		if !ok {
			continue
		}
		out = append(out, cloneRaw(raw))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateByID(_ context.Context, collection, id string, patch Patch, opts UpdateOptions) (bson.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	before, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}

	var d bson.D
	if err := bson.Unmarshal(before, &d); err != nil {
		return nil, &Error{Op: "update", Code: CodeValidation, Err: err}
	}
	d, err := mergePatch(d, patch)
	if err != nil {
		return nil, &Error{Op: "update", Code: CodeValidation, Err: err}
	}
	after, err := bson.Marshal(d)
	if err != nil {
		return nil, &Error{Op: "update", Code: CodeValidation, Err: err}
	}
	if err := m.checkUnique(collection, id, after); err != nil {
		return nil, &Error{Op: "update", Code: CodeDuplicateKey, Err: err}
	}

	c.docs[id] = after
	if opts.ReturnUpdated {
		return cloneRaw(after), nil
	}
	return cloneRaw(before), nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, collection, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return false, nil
	}
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStore) SampleExcluding(_ context.Context, collection, excludeID string, count int) ([]bson.Raw, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []bson.Raw{}
	c, ok := m.collections[collection]
	if !ok || count <= 0 {
		return out, nil
	}

	eligible := make([]string, 0, len(c.order))
	for _, id := range c.order {
		if id != excludeID {
			eligible = append(eligible, id)
		}
	}
	rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if len(eligible) > count {
		eligible = eligible[:count]
	}
	for _, id := range eligible {
		out = append(out, cloneRaw(c.docs[id]))
	}
	return out, nil
}

func (m *MemoryStore) EnsureIndexes(_ context.Context, indexes ...Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, idx := range indexes {
		existing := m.indexes[idx.Collection]
		dup := false
		for _, e := range existing {
			if e.Field == idx.Field {
				dup = true
				break
			}
		}
		if !dup {
			m.indexes[idx.Collection] = append(existing, idx)
		}
	}
	return nil
}

// checkUnique rejects raw when a unique field collides with another
// document. Caller holds the write lock.
func (m *MemoryStore) checkUnique(collection, id string, raw bson.Raw) error {
	c := m.collections[collection]
	for _, idx := range m.indexes[collection] {
		if !idx.Unique {
			continue
		}
		val, err := raw.LookupErr(idx.Field)
		if err != nil || val.Type == bson.TypeNull {
			if idx.Sparse {
				continue
			}
			val = bson.RawValue{Type: bson.TypeNull}
		}
		for oid, other := range c.docs {
			if oid == id {
				continue
			}
			ov, err := other.LookupErr(idx.Field)
			if err != nil || ov.Type == bson.TypeNull {
				if idx.Sparse {
					continue
				}
				ov = bson.RawValue{Type: bson.TypeNull}
			}
			if ov.Equal(val) {
				return &duplicateFieldError{collection: collection, field: idx.Field}
			}
		}
	}
	return nil
}

type duplicateFieldError struct {
	collection string
	field      string
}

func (e *duplicateFieldError) Error() string {
	return "duplicate value for " + e.collection + "." + e.field
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}
