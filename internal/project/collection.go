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

// Collection describes one ordered entity collection of the document.
// The accessors are typed, so editing surfaces never address fields by name at runtime.
type Collection[T any] struct {
	Name     string
	Prefix   string
	get      func(*domain.Document) []T
	set      func(*domain.Document, []T)
	id       func(*T) *string
	validate func(T) error
	clone    func(T) T
}

// copyOf detaches item from any slice it shares with the model.
func (c Collection[T]) copyOf(item T) T {
	if c.clone == nil {
		return item
	}
	return c.clone(item)
}

func (c Collection[T]) check(item T) error {
	if c.validate == nil {
		return nil
	}
	if err := c.validate(item); err != nil {
		return fmt.Errorf("%s: %w: %w", c.Name, ErrInvalid, err)
	}
	return nil
}

func (c Collection[T]) index(d *domain.Document, id string) int {
	if id == "" {
		return -1
	}
	items := c.get(d)
	for i := range items {
		if *c.id(&items[i]) == id {
			return i
		}
	}
	return -1
}

func (c Collection[T]) checkAll(d *domain.Document) error {
	for _, it := range c.get(d) {
		if err := c.check(it); err != nil {
			return err
		}
	}
	return nil
}

// checkEntities runs the per-entity rules of every validated collection.
func checkEntities(d *domain.Document) error {
	for _, fn := range []func(*domain.Document) error{
		Scenes.checkAll, Characters.checkAll, Posters.checkAll, Budget.checkAll,
	} {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the id of item.
func (c Collection[T]) ID(item T) string { return *c.id(&item) }

var (
	Slides = Collection[domain.Slide]{
		Name: "slides", Prefix: domain.PrefixSlide,
		get: func(d *domain.Document) []domain.Slide { return d.Slides },
		set: func(d *domain.Document, v []domain.Slide) { d.Slides = v },
		id:  func(s *domain.Slide) *string { return &s.ID },
	}
	Scenes = Collection[domain.ShowcaseScene]{
		Name: "showcaseScenes", Prefix: domain.PrefixScene,
		get:      func(d *domain.Document) []domain.ShowcaseScene { return d.Info.ShowcaseScenes },
		set:      func(d *domain.Document, v []domain.ShowcaseScene) { d.Info.ShowcaseScenes = v },
		id:       func(s *domain.ShowcaseScene) *string { return &s.ID },
		validate: validateScene,
		clone: func(s domain.ShowcaseScene) domain.ShowcaseScene {
			s.GeneratedVariants = slices.Clone(s.GeneratedVariants)
			return s
		},
	}
	Characters = Collection[domain.Character]{
		Name: "characters", Prefix: domain.PrefixCharacter,
		get:      func(d *domain.Document) []domain.Character { return d.Info.Characters },
		set:      func(d *domain.Document, v []domain.Character) { d.Info.Characters = v },
		id:       func(c *domain.Character) *string { return &c.ID },
		validate: validateCharacter,
	}
	Posters = Collection[domain.Poster]{
		Name: "posters", Prefix: domain.PrefixPoster,
		get:      func(d *domain.Document) []domain.Poster { return d.Info.Posters },
		set:      func(d *domain.Document, v []domain.Poster) { d.Info.Posters = v },
		id:       func(p *domain.Poster) *string { return &p.ID },
		validate: validatePoster,
	}
	AudioAssets = Collection[domain.AudioAsset]{
		Name: "audioAssets", Prefix: domain.PrefixAudio,
		get: func(d *domain.Document) []domain.AudioAsset { return d.Info.AudioAssets },
		set: func(d *domain.Document, v []domain.AudioAsset) { d.Info.AudioAssets = v },
		id:  func(a *domain.AudioAsset) *string { return &a.ID },
	}
	Videos = Collection[domain.VideoAsset]{
		Name: "videos", Prefix: domain.PrefixVideo,
		get: func(d *domain.Document) []domain.VideoAsset { return d.Info.Videos },
		set: func(d *domain.Document, v []domain.VideoAsset) { d.Info.Videos = v },
		id:  func(a *domain.VideoAsset) *string { return &a.ID },
	}
	Locations = Collection[domain.LocationAsset]{
		Name: "locations", Prefix: domain.PrefixLocation,
		get: func(d *domain.Document) []domain.LocationAsset { return d.Info.Locations },
		set: func(d *domain.Document, v []domain.LocationAsset) { d.Info.Locations = v },
		id:  func(a *domain.LocationAsset) *string { return &a.ID },
	}
	Cast = Collection[domain.CastMember]{
		Name: "castList", Prefix: domain.PrefixCast,
		get: func(d *domain.Document) []domain.CastMember { return d.Info.CastList },
		set: func(d *domain.Document, v []domain.CastMember) { d.Info.CastList = v },
		id:  func(a *domain.CastMember) *string { return &a.ID },
	}
	Crew = Collection[domain.CrewMember]{
		Name: "crewList", Prefix: domain.PrefixCrew,
		get: func(d *domain.Document) []domain.CrewMember { return d.Info.CrewList },
		set: func(d *domain.Document, v []domain.CrewMember) { d.Info.CrewList = v },
		id:  func(a *domain.CrewMember) *string { return &a.ID },
	}
	Vault = Collection[domain.VaultItem]{
		Name: "vaultItems", Prefix: domain.PrefixVault,
		get: func(d *domain.Document) []domain.VaultItem { return d.Info.VaultItems },
		set: func(d *domain.Document, v []domain.VaultItem) { d.Info.VaultItems = v },
		id:  func(a *domain.VaultItem) *string { return &a.ID },
	}
	Budget = Collection[domain.BudgetLineItem]{
		Name: "budgetItems", Prefix: domain.PrefixBudget,
		get:      func(d *domain.Document) []domain.BudgetLineItem { return d.Info.BudgetItems },
		set:      func(d *domain.Document, v []domain.BudgetLineItem) { d.Info.BudgetItems = v },
		id:       func(a *domain.BudgetLineItem) *string { return &a.ID },
		validate: validateBudgetItem,
	}
	Beats = Collection[domain.ScriptBeat]{
		Name: "scriptRoadmap", Prefix: domain.PrefixBeat,
		get: func(d *domain.Document) []domain.ScriptBeat { return d.Info.ScriptRoadmap },
		set: func(d *domain.Document, v []domain.ScriptBeat) { d.Info.ScriptRoadmap = v },
		id:  func(a *domain.ScriptBeat) *string { return &a.ID },
	}
)
