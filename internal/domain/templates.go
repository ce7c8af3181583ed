/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// SlideTemplate seeds one deck slide.
type SlideTemplate struct {
	Title       string
	Description string
	Placeholder string
}

var filmDeck = []SlideTemplate{
	{"Title & Logline", "Hook the reader in one sentence.", "A one-line pitch that names the hero, the goal and the stakes."},
	{"Synopsis", "Tell the story from setup to resolution.", "Beginning, middle and end in three short paragraphs."},
	{"Characters", "Introduce the people we follow.", "Protagonist, antagonist and the key supporting roles."},
	{"World & Tone", "Where and how the story feels.", "Setting, period, mood and genre conventions."},
	{"Visual Style", "How the film will look.", "Palette, camera language and references."},
	{"Director's Vision", "Why this story, why now.", "Personal connection and intent."},
	{"Target Audience", "Who will watch it.", "Primary and secondary audiences, platforms."},
	{"Comparables", "Films that prove the market.", "Two or three recent titles with performance notes."},
	{"Budget & Schedule", "What it takes to make it.", "Scale, shoot days and key milestones."},
	{"Team", "Who is making it.", "Director, producers, key creatives and attached cast."},
}

var shortDeck = []SlideTemplate{
	{"Title & Logline", "Hook the reader in one sentence.", "A one-line pitch."},
	{"Story", "The whole short in a paragraph.", "Setup, turn and ending."},
	{"Characters", "Who is on screen.", "Main roles and what they want."},
	{"Look & Feel", "Visual and sonic treatment.", "References, palette, sound."},
	{"Production Plan", "How it gets made.", "Locations, days, budget."},
	{"Team", "Who is making it.", "Key creatives."},
}

var documentaryDeck = []SlideTemplate{
	{"Title & Logline", "The film in one sentence.", "Subject and central question."},
	{"Subject", "Who or what the film is about.", "Why this subject matters."},
	{"Access", "What we can film.", "Contributors, archives and permissions."},
	{"Story Arc", "How the film unfolds.", "Beginning, turning points and resolution."},
	{"Style", "How the film is told.", "Observational, interviews, archive, recreation."},
	{"Impact", "What changes because of the film.", "Audience, outreach and partners."},
	{"Distribution", "Where it will be seen.", "Festivals, broadcasters, platforms."},
	{"Team", "Who is making it.", "Director, producer, key crew."},
}

var seriesDeck = []SlideTemplate{
	{"Title & Logline", "The series in one sentence.", "Premise and hook."},
	{"Series Overview", "What a season looks like.", "Format, episode count, runtime."},
	{"Characters", "The ensemble.", "Arcs across the season."},
	{"Pilot", "The first episode.", "Story of the pilot."},
	{"Season Arc", "Where the season goes.", "Episode-by-episode beats."},
	{"Future Seasons", "Room to grow.", "Where the story can go next."},
	{"Team", "Who is making it.", "Showrunner and key creatives."},
}

var musicVideoDeck = []SlideTemplate{
	{"Track & Artist", "What we are visualising.", "Song, artist and release."},
	{"Concept", "The idea in one paragraph.", "Narrative or performance concept."},
	{"Visual Treatment", "How it looks.", "References, palette, wardrobe."},
	{"Locations", "Where it is shot.", "Sets and locations."},
	{"Production Plan", "How it gets made.", "Days, crew and budget."},
}

var commercialDeck = []SlideTemplate{
	{"Brand & Brief", "What the client asked for.", "Product, objective and mandatories."},
	{"Creative Idea", "The idea in one line.", "Insight and hook."},
	{"Script", "The spot beat by beat.", "Timed script or storyboard notes."},
	{"Visual Treatment", "How it looks.", "References, casting and palette."},
	{"Deliverables", "What ships.", "Cut-downs, formats and platforms."},
	{"Timeline & Budget", "When and how much.", "Schedule and cost summary."},
}

var startupDeck = []SlideTemplate{
	{"Company", "Name and one-line description.", "What you do in one sentence."},
	{"Problem", "The pain you solve.", "Who has it and how much it costs them."},
	{"Solution", "Your answer to the problem.", "How it works and why it is better."},
	{"Market", "How big the opportunity is.", "TAM, SAM, SOM."},
	{"Product", "What you have built.", "Screens, demo and roadmap."},
	{"Business Model", "How you make money.", "Pricing and unit economics."},
	{"Traction", "Proof that it works.", "Users, revenue, growth."},
	{"Competition", "Who else is out there.", "Positioning against alternatives."},
	{"Team", "Why you will win.", "Founders and key hires."},
	{"The Ask", "What you are raising.", "Amount, use of funds and milestones."},
}

// SlideTemplates returns the deck template for a project type. Unknown types get the feature film deck.
func SlideTemplates(t ProjectType) []SlideTemplate {
	switch t {
	case ShortFilm:
		return shortDeck
	case Documentary:
		return documentaryDeck
	case WebSeries:
		return seriesDeck
	case MusicVideo:
		return musicVideoDeck
	case AdCommercial:
		return commercialDeck
	case StartupPitch:
		return startupDeck
	default:
		return filmDeck
	}
}

// SlidesFromTemplates instantiates the deck for a project type with fresh ids.
func SlidesFromTemplates(t ProjectType) []Slide {
	tpls := SlideTemplates(t)
	out := make([]Slide, 0, len(tpls))
	for _, tpl := range tpls {
		out = append(out, Slide{
			ID:          NewID(PrefixSlide),
			Title:       tpl.Title,
			Description: tpl.Description,
			Placeholder: tpl.Placeholder,
		})
	}
	return out
}
