/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package project

import (
	"fmt"
	"slices"

	"cinepitch/internal/domain"
)

// Append adds item to the end of collection c. An empty id is assigned; a present id must be new.
func Append[T any](m *Model, c Collection[T], item T) (T, error) {
	var added T
	err := m.mutate(c.Name+".add", Change{Kind: ChangeCollection, Collection: c.Name}, func(d *domain.Document, _ *string) error {
		var err error
		added, err = appendItem(d, c, item)
		return err
	})
	return added, err
}

// AppendAll appends items in one edit. Either every item is added or none is.
func AppendAll[T any](m *Model, c Collection[T], items []T) ([]T, error) {
	var added []T
	err := m.mutate(c.Name+".add", Change{Kind: ChangeCollection, Collection: c.Name}, func(d *domain.Document, _ *string) error {
		added = make([]T, 0, len(items))
		for _, it := range items {
			a, err := appendItem(d, c, it)
			if err != nil {
				return err
			}
			added = append(added, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func appendItem[T any](d *domain.Document, c Collection[T], item T) (T, error) {
	item = c.copyOf(item)
	id := c.id(&item)
	if *id == "" {
		*id = domain.NewID(c.Prefix)
	} else if c.index(d, *id) >= 0 {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", c.Name, *id, ErrDuplicateID)
	}
	if err := c.check(item); err != nil {
		var zero T
		return zero, err
	}
	items := c.get(d)
	next := make([]T, 0, len(items)+1)
	next = append(append(next, items...), item)
	c.set(d, next)
	return c.copyOf(item), nil
}

// Update edits the entity with id in place of a copy; the id cannot be changed.
func Update[T any](m *Model, c Collection[T], id string, fn func(*T) error) error {
	return m.mutate(c.Name+".update:"+id, Change{Kind: ChangeCollection, Collection: c.Name, ID: id}, func(d *domain.Document, _ *string) error {
		i := c.index(d, id)
		if i < 0 {
			return fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
		}
		next := slices.Clone(c.get(d))
		item := c.copyOf(next[i])
		if err := fn(&item); err != nil {
			return err
		}
		*c.id(&item) = id
		if err := c.check(item); err != nil {
			return err
		}
		next[i] = item
		c.set(d, next)
		return nil
	})
}

// Remove deletes the entity with id. References to it elsewhere are left as they are.
func Remove[T any](m *Model, c Collection[T], id string) error {
	if c.Name == Slides.Name {
		return m.RemoveSlide(id)
	}
	return m.mutate(c.Name+".remove", Change{Kind: ChangeCollection, Collection: c.Name, ID: id}, func(d *domain.Document, _ *string) error {
		i := c.index(d, id)
		if i < 0 {
			return fmt.Errorf("%s %s: %w", c.Name, id, ErrNotFound)
		}
		c.set(d, slices.Delete(slices.Clone(c.get(d)), i, i+1))
		return nil
	})
}

// Find returns a copy of the entity with id.
func Find[T any](m *Model, c Collection[T], id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := c.index(&m.doc, id); i >= 0 {
		return c.copyOf(c.get(&m.doc)[i]), true
	}
	var zero T
	return zero, false
}

// List returns a copy of collection c in document order.
func List[T any](m *Model, c Collection[T]) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := c.get(&m.doc)
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = c.copyOf(it)
	}
	return out
}
