/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "slices"

// Clone returns a deep copy; no slice of the result aliases d.
func (d Document) Clone() Document {
	out := Document{Info: d.Info.Clone(), Slides: slices.Clone(d.Slides)}
	if out.Slides == nil && d.Slides != nil {
		out.Slides = []Slide{}
	}
	return out
}

// Clone returns a deep copy of the project metadata and collections.
func (p ProjectInfo) Clone() ProjectInfo {
	out := p
	out.ScriptRoadmap = slices.Clone(p.ScriptRoadmap)
	out.ShowcaseScenes = slices.Clone(p.ShowcaseScenes)
	for i := range out.ShowcaseScenes {
		out.ShowcaseScenes[i].GeneratedVariants = slices.Clone(p.ShowcaseScenes[i].GeneratedVariants)
	}
	out.Characters = slices.Clone(p.Characters)
	out.Posters = slices.Clone(p.Posters)
	out.AudioAssets = slices.Clone(p.AudioAssets)
	out.Videos = slices.Clone(p.Videos)
	out.Locations = slices.Clone(p.Locations)
	out.CastList = slices.Clone(p.CastList)
	out.CrewList = slices.Clone(p.CrewList)
	out.VaultItems = slices.Clone(p.VaultItems)
	out.BudgetItems = slices.Clone(p.BudgetItems)
	return out
}
