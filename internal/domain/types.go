/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the project document: the metadata of one film/pitch project plus the
// ordered collections edited by the studio surfaces. JSON tags follow the portable project
// file format, so a document serializes as {"project": ProjectInfo, "slides": [...]}.

// Document is the complete in-memory state of one creative project.
type Document struct {
	Info   ProjectInfo
	Slides []Slide
}

// ProjectInfo holds project metadata and every asset collection except slides.
type ProjectInfo struct {
	Title       string      `json:"title"`
	Genre       string      `json:"genre"`
	Logline     string      `json:"logline"`
	Director    string      `json:"director"`
	Language    Language    `json:"language"`
	FullScript  string      `json:"fullScript"`
	ProjectType ProjectType `json:"projectType"`
	ServiceType ServiceType `json:"serviceType"`

	StoryConcept  string       `json:"storyConcept,omitempty"`
	ScriptRoadmap []ScriptBeat `json:"scriptRoadmap"`

	ShowcaseScenes []ShowcaseScene  `json:"showcaseScenes"`
	Characters     []Character      `json:"characters"`
	Posters        []Poster         `json:"posters"`
	AudioAssets    []AudioAsset     `json:"audioAssets"`
	Videos         []VideoAsset     `json:"videos"`
	Locations      []LocationAsset  `json:"locations"`
	CastList       []CastMember     `json:"castList"`
	CrewList       []CrewMember     `json:"crewList"`
	VaultItems     []VaultItem      `json:"vaultItems"`
	BudgetItems    []BudgetLineItem `json:"budgetItems"`

	BudgetCurrency Currency    `json:"budgetCurrency"`
	BudgetScale    BudgetScale `json:"budgetScale"`
}

// Slide is one page of the pitch deck. Its position in Document.Slides is its rank.
type Slide struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder,omitempty"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl,omitempty"`
	IsCustom    bool   `json:"isCustom"`
}

// ShowcaseScene is a storyboard shot.
type ShowcaseScene struct {
	ID           string `json:"id"`
	Heading      string `json:"heading"`
	Action       string `json:"action"`
	VisualPrompt string `json:"visualPrompt"`
	Cinematography
	ImageURL          string   `json:"imageUrl,omitempty"`
	GeneratedVariants []string `json:"generatedVariants,omitempty"`
	CharacterRef1ID   string   `json:"characterRef1Id,omitempty"`
	CharacterRef2ID   string   `json:"characterRef2Id,omitempty"`
}

// Character is a cast character with the attributes used to build its portrait prompt.
type Character struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	RoleType    RoleType `json:"roleType"`
	Description string   `json:"description"`
	Appearance
	AspectRatio             AspectRatio `json:"aspectRatio,omitempty"`
	VisualPrompt            string      `json:"visualPrompt"`
	ImageURL                string      `json:"imageUrl,omitempty"`
	ReferenceImageURL       string      `json:"referenceImageUrl,omitempty"`
	ActionReferenceImageURL string      `json:"actionReferenceImageUrl,omitempty"`
}

// Poster is a key-art concept. CharacterRefID may dangle after the character is deleted.
type Poster struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Tagline           string      `json:"tagline"`
	Style             string      `json:"style"`
	AspectRatio       AspectRatio `json:"aspectRatio"`
	Prompt            string      `json:"prompt"`
	ImageURL          string      `json:"imageUrl,omitempty"`
	ReferenceImageURL string      `json:"referenceImageUrl,omitempty"`
	CharacterRefID    string      `json:"characterRefId,omitempty"`
}

type AudioAsset struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Voice     string      `json:"voice,omitempty"`
	AudioURL  string      `json:"audioUrl"`
	Source    MediaSource `json:"source,omitempty"`
	CreatedAt int64       `json:"createdAt"` // unix milliseconds
}

type VideoAsset struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	URL       string      `json:"url"`
	Source    MediaSource `json:"source"`
	CreatedAt int64       `json:"createdAt"`
}

type LocationAsset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Suitability string `json:"suitability,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type CastMember struct {
	ID             string `json:"id"`
	CharacterName  string `json:"characterName"`
	CharacterImage string `json:"characterImage,omitempty"`
	ActorName      string `json:"actorName"`
	ActorImage     string `json:"actorImage,omitempty"`
}

type CrewMember struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// VaultItem is a typed generic attachment.
type VaultItem struct {
	ID          string        `json:"id"`
	Type        VaultItemType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	FileName    string        `json:"fileName"`
	FileSize    string        `json:"fileSize"`
	CreatedAt   int64         `json:"createdAt"`
}

type BudgetLineItem struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Cost     float64 `json:"cost"`
	Notes    string  `json:"notes,omitempty"`
}

// ScriptBeat is one step of the story roadmap.
type ScriptBeat struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	AISuggestion string `json:"aiSuggestion,omitempty"`
}
