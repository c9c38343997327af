package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "products"

// ErrNotFound is returned when no product has the requested PLU.
var ErrNotFound = errors.New("product not found")

// Store defines the catalog operations the till needs
type Store interface {
	// Get retrieves a product by PLU
	Get(plu int) (*Product, error)

	// Save adds or replaces a product
	Save(product *Product) error

	// SaveMany adds or replaces products in one transaction
	SaveMany(products []*Product) error

	// List returns all products ordered by PLU
	List() ([]*Product, error)

	// Count returns the number of products
	Count() (int, error)

	// Close releases the store
	Close() error
}

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the catalog database at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// key zero-pads the PLU to the width of the largest int64 so bucket
// iteration follows numeric order for every PLU the decoder can produce.
func key(plu int) []byte {
	return []byte(fmt.Sprintf("%019d", plu))
}

func putProduct(bucket *bbolt.Bucket, product *Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshaling product: %w", err)
	}
	return bucket.Put(key(product.PLU), data)
}

// Get retrieves a product by PLU
func (b *BoltStore) Get(plu int) (*Product, error) {
	var product *Product
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get(key(plu))
		if data == nil {
			return fmt.Errorf("%w: %d", ErrNotFound, plu)
		}
		return json.Unmarshal(data, &product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Save adds or replaces a product
func (b *BoltStore) Save(product *Product) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putProduct(tx.Bucket([]byte(bucketName)), product)
	})
}

// SaveMany adds or replaces products in one transaction
func (b *BoltStore) SaveMany(products []*Product) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		for _, product := range products {
			if err := putProduct(bucket, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns all products ordered by PLU
func (b *BoltStore) List() ([]*Product, error) {
	products := make([]*Product, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var product Product
			if err := json.Unmarshal(v, &product); err != nil {
				return fmt.Errorf("unmarshaling product: %w", err)
			}
			products = append(products, &product)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Count returns the number of products
func (b *BoltStore) Count() (int, error) {
	var n int
	err := b.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database connection
func (b *BoltStore) Close() error {
	return b.db.Close()
}
