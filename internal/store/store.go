// Package store persists named entity collections as whole JSON lists, one
// row per collection. Every mutation replaces the entire list; there are no
// incremental patches, so a reader always sees a complete, consistent
// snapshot. A monotonic id counter is stored alongside each collection.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
)

// Collection manages one named list of entities.
type Collection[T any] struct {
	db   *sql.DB
	name string
	seed []T

	mu   sync.Mutex
	subs []func([]T)
}

// New creates a collection bound to the given database. seed is the default
// list used when the collection does not exist yet; it may be empty.
func New[T any](db *sql.DB, name string, seed []T) *Collection[T] {
	return &Collection[T]{db: db, name: name, seed: seed}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Subscribe registers fn to be called with the new list after every
// successful Replace. Callbacks run synchronously on the mutating goroutine.
func (c *Collection[T]) Subscribe(fn func([]T)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Load reads the collection. A missing row seeds the default list; a missing
// key is "use default", never an error.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

func (c *Collection[T]) loadLocked() ([]T, error) {
	var data string
	err := c.db.QueryRow("SELECT data FROM collections WHERE name = ?", c.name).Scan(&data)
	if err == sql.ErrNoRows {
		return c.seedLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", c.name, err)
	}

	var list []T
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", c.name, err)
	}
	return list, nil
}

func (c *Collection[T]) seedLocked() ([]T, error) {
	seed := c.seed
	if seed == nil {
		seed = []T{}
	}
	data, err := json.Marshal(seed)
	if err != nil {
		return nil, fmt.Errorf("encode seed for %s: %w", c.name, err)
	}

	// next_id starts past the seed so assigned ids never collide with it.
	_, err = c.db.Exec(
		"INSERT INTO collections (name, data, next_id) VALUES (?, ?, ?)",
		c.name, string(data), len(seed),
	)
	if err != nil {
		return nil, fmt.Errorf("seed collection %s: %w", c.name, err)
	}

	out := make([]T, len(seed))
	copy(out, seed)
	return out, nil
}

// Replace substitutes the whole list and persists it. Subscribers are
// notified after the write commits.
func (c *Collection[T]) Replace(list []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.replaceLocked(list); err != nil {
		return err
	}

	for _, fn := range c.subs {
		fn(list)
	}
	return nil
}

func (c *Collection[T]) replaceLocked(list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.name, err)
	}

	res, err := c.db.Exec(
		"UPDATE collections SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?",
		string(data), c.name,
	)
	if err != nil {
		return fmt.Errorf("persist collection %s: %w", c.name, err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		// Replace before first Load. Create the row directly.
		_, err = c.db.Exec(
			"INSERT INTO collections (name, data, next_id) VALUES (?, ?, ?)",
			c.name, string(data), len(list),
		)
		if err != nil {
			return fmt.Errorf("persist collection %s: %w", c.name, err)
		}
	}
	return nil
}

// Mutate loads the list, applies fn, and persists the result as one
// serialized read-modify-write. fn returning an error aborts without
// touching storage.
func (c *Collection[T]) Mutate(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.loadLocked()
	if err != nil {
		return err
	}

	updated, err := fn(list)
	if err != nil {
		return err
	}

	if err := c.replaceLocked(updated); err != nil {
		return err
	}

	for _, fn := range c.subs {
		fn(updated)
	}
	return nil
}

// NextID increments and returns the collection's id counter. Ids are
// monotonic per collection and survive deletes, so they are never reused.
func (c *Collection[T]) NextID() (int64, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", c.name, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE collections SET next_id = next_id + 1 WHERE name = ?", c.name)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", c.name, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// Collection not seeded yet; create it first.
		seed := c.seed
		if seed == nil {
			seed = []T{}
		}
		seedData, err := json.Marshal(seed)
		if err != nil {
			return 0, fmt.Errorf("next id for %s: %w", c.name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO collections (name, data, next_id) VALUES (?, ?, ?)",
			c.name, string(seedData), len(seed)+1,
		); err != nil {
			return 0, fmt.Errorf("next id for %s: %w", c.name, err)
		}
		var id int64
		if err := tx.QueryRow("SELECT next_id FROM collections WHERE name = ?", c.name).Scan(&id); err != nil {
			return 0, fmt.Errorf("next id for %s: %w", c.name, err)
		}
		return id, tx.Commit()
	}

	var id int64
	if err := tx.QueryRow("SELECT next_id FROM collections WHERE name = ?", c.name).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id for %s: %w", c.name, err)
	}
	return id, tx.Commit()
}
