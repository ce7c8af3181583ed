/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// NewDocument returns the empty document used at start-up and on reset.
// All collections are non-nil so they serialize as [] rather than null.
func NewDocument() Document {
	return Document{Info: DefaultInfo(), Slides: []Slide{}}
}

// DefaultInfo returns project metadata with defaults and empty collections.
func DefaultInfo() ProjectInfo {
	info := ProjectInfo{
		Language:       LanguageEnglish,
		ProjectType:    FeatureFilm,
		ServiceType:    PitchDeck,
		BudgetCurrency: CurrencyINR,
		BudgetScale:    ScaleMidRange,
	}
	info.FillDefaults()
	return info
}

// FillDefaults replaces absent optional collections and settings with their defaults.
// Loaded documents go through this so an older or partial file still yields a complete document.
func (p *ProjectInfo) FillDefaults() {
	if p.Language == "" {
		p.Language = LanguageEnglish
	}
	if p.ProjectType == "" {
		p.ProjectType = FeatureFilm
	}
	if p.ServiceType == "" {
		p.ServiceType = PitchDeck
	}
	if p.BudgetCurrency == "" {
		p.BudgetCurrency = CurrencyINR
	}
	if p.BudgetScale == "" {
		p.BudgetScale = ScaleMidRange
	}
	p.ShowcaseScenes = orEmpty(p.ShowcaseScenes)
	p.Characters = orEmpty(p.Characters)
	p.Posters = orEmpty(p.Posters)
	p.AudioAssets = orEmpty(p.AudioAssets)
	p.Videos = orEmpty(p.Videos)
	p.Locations = orEmpty(p.Locations)
	p.CastList = orEmpty(p.CastList)
	p.CrewList = orEmpty(p.CrewList)
	p.VaultItems = orEmpty(p.VaultItems)
	p.BudgetItems = orEmpty(p.BudgetItems)
	p.ScriptRoadmap = orEmpty(p.ScriptRoadmap)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
