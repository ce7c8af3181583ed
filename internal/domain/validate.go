/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a document: every entity has an id and ids are
// unique within each collection, and enumerated settings hold known values.
// Dangling cross references are allowed.
func (d Document) Validate() error {
	var errs []error
	check := func(name string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for i, id := range ids {
			if id == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: missing id", name, i))
				continue
			}
			if _, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("%s[%d]: duplicate id %q", name, i, id))
			}
			seen[id] = struct{}{}
		}
	}
	p := d.Info
	check("slides", idsOf(d.Slides, func(s Slide) string { return s.ID }))
	check("showcaseScenes", idsOf(p.ShowcaseScenes, func(s ShowcaseScene) string { return s.ID }))
	check("characters", idsOf(p.Characters, func(c Character) string { return c.ID }))
	check("posters", idsOf(p.Posters, func(x Poster) string { return x.ID }))
	check("audioAssets", idsOf(p.AudioAssets, func(x AudioAsset) string { return x.ID }))
	check("videos", idsOf(p.Videos, func(x VideoAsset) string { return x.ID }))
	check("locations", idsOf(p.Locations, func(x LocationAsset) string { return x.ID }))
	check("castList", idsOf(p.CastList, func(x CastMember) string { return x.ID }))
	check("crewList", idsOf(p.CrewList, func(x CrewMember) string { return x.ID }))
	check("vaultItems", idsOf(p.VaultItems, func(x VaultItem) string { return x.ID }))
	check("budgetItems", idsOf(p.BudgetItems, func(x BudgetLineItem) string { return x.ID }))
	check("scriptRoadmap", idsOf(p.ScriptRoadmap, func(x ScriptBeat) string { return x.ID }))

	if p.Language != "" && !p.Language.Valid() {
		errs = append(errs, fmt.Errorf("language: unknown value %q", p.Language))
	}
	if p.ProjectType != "" && !p.ProjectType.Valid() {
		errs = append(errs, fmt.Errorf("projectType: unknown value %q", p.ProjectType))
	}
	if p.ServiceType != "" && !p.ServiceType.Valid() {
		errs = append(errs, fmt.Errorf("serviceType: unknown value %q", p.ServiceType))
	}
	if p.BudgetCurrency != "" && !p.BudgetCurrency.Valid() {
		errs = append(errs, fmt.Errorf("budgetCurrency: unknown value %q", p.BudgetCurrency))
	}
	if p.BudgetScale != "" && !p.BudgetScale.Valid() {
		errs = append(errs, fmt.Errorf("budgetScale: unknown value %q", p.BudgetScale))
	}
	return errors.Join(errs...)
}

func idsOf[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
