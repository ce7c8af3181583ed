/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "slices"

type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageMalayalam Language = "ml"
)

func (l Language) Valid() bool { return l == LanguageEnglish || l == LanguageMalayalam }

type ProjectType string

const (
	FeatureFilm  ProjectType = "FEATURE_FILM"
	ShortFilm    ProjectType = "SHORT_FILM"
	Documentary  ProjectType = "DOCUMENTARY"
	WebSeries    ProjectType = "WEB_SERIES"
	MusicVideo   ProjectType = "MUSIC_VIDEO"
	AdCommercial ProjectType = "AD_COMMERCIAL"
	StartupPitch ProjectType = "STARTUP_PITCH"
)

// ProjectTypes lists the supported project types in menu order.
var ProjectTypes = []ProjectType{FeatureFilm, ShortFilm, Documentary, WebSeries, MusicVideo, AdCommercial, StartupPitch}

func (p ProjectType) Valid() bool { return slices.Contains(ProjectTypes, p) }

type ServiceType string

const (
	PitchDeck    ServiceType = "PITCH_DECK"
	Storyboard   ServiceType = "STORYBOARD"
	ScriptDoctor ServiceType = "SCRIPT_DOCTOR"
	FullSuite    ServiceType = "FULL_SUITE"
)

func (s ServiceType) Valid() bool {
	switch s {
	case PitchDeck, Storyboard, ScriptDoctor, FullSuite:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Valid() bool { return c == CurrencyINR || c == CurrencyUSD }

type BudgetScale string

const (
	ScaleIndie       BudgetScale = "Micro/Indie"
	ScaleMidRange    BudgetScale = "Mid-Range"
	ScaleBlockbuster BudgetScale = "Blockbuster"
)

func (s BudgetScale) Valid() bool {
	return s == ScaleIndie || s == ScaleMidRange || s == ScaleBlockbuster
}

type RoleType string

const (
	Protagonist RoleType = "Protagonist"
	Antagonist  RoleType = "Antagonist"
	Supporting  RoleType = "Supporting"
	Cameo       RoleType = "Cameo"
)

func (r RoleType) Valid() bool {
	switch r {
	case Protagonist, Antagonist, Supporting, Cameo:
		return true
	}
	return false
}

type AspectRatio string

const (
	AspectWide     AspectRatio = "16:9"
	AspectSquare   AspectRatio = "1:1"
	AspectPortrait AspectRatio = "2:3"
)

func (a AspectRatio) Valid() bool {
	return a == AspectWide || a == AspectSquare || a == AspectPortrait
}

// MediaSource tells generated media apart from user uploads.
type MediaSource string

const (
	SourceAI     MediaSource = "AI"
	SourceUpload MediaSource = "UPLOAD"
)

type VaultItemType string

const (
	VaultImage   VaultItemType = "IMAGE"
	VaultVideo   VaultItemType = "VIDEO"
	VaultPDF     VaultItemType = "PDF"
	VaultText    VaultItemType = "TEXT"
	VaultArchive VaultItemType = "ARCHIVE"
	VaultAudio   VaultItemType = "AUDIO"
	VaultUnknown VaultItemType = "UNKNOWN"
)
