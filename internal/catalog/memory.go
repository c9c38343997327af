package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int]Product
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[int]Product)}
}

func (m *MemoryStore) Get(plu int) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[plu]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, plu)
	}
	return &product, nil
}

func (m *MemoryStore) Save(product *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[product.PLU] = *product
	return nil
}

func (m *MemoryStore) SaveMany(products []*Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, product := range products {
		m.products[product.PLU] = *product
	}
	return nil
}

func (m *MemoryStore) List() ([]*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]*Product, 0, len(m.products))
	for _, p := range m.products {
		product := p
		products = append(products, &product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].PLU < products[j].PLU })
	return products, nil
}

func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
