/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package studio

import (
	"fmt"
	"strings"

	"cinepitch/internal/domain"
)

const fallbackSlidePrompt = "Cinematic shot, 8k resolution, highly detailed, dramatic lighting"

// maxScriptContext bounds how much of the script is sent along with a prompt.
const maxScriptContext = 15000

func scriptContext(info domain.ProjectInfo) string {
	if info.FullScript == "" {
		return info.Logline
	}
	r := []rune(info.FullScript)
	if len(r) > maxScriptContext {
		r = r[:maxScriptContext]
	}
	return string(r)
}

func languageName(l domain.Language) string {
	if l == domain.LanguageMalayalam {
		return "Malayalam"
	}
	return "English"
}

func slideImagePrompt(info domain.ProjectInfo, sl domain.Slide) string {
	if p := strings.TrimSpace(sl.ImagePrompt); p != "" {
		return p
	}
	if sl.Content == "" && sl.Title == "" {
		return fallbackSlidePrompt
	}
	parts := []string{"Cinematic key frame for the film"}
	if info.Title != "" {
		parts[0] += fmt.Sprintf(" %q", info.Title)
	}
	if info.Genre != "" {
		parts = append(parts, info.Genre+" genre")
	}
	parts = append(parts, "Subject: "+sl.Title)
	if sl.Content != "" {
		parts = append(parts, "Description: "+sl.Content)
	}
	parts = append(parts, fallbackSlidePrompt)
	return strings.Join(parts, ". ")
}

func sceneImagePrompt(info domain.ProjectInfo, sc domain.ShowcaseScene, cast []domain.Character) string {
	var b strings.Builder
	b.WriteString("Cinematic storyboard frame.")
	if sc.Heading != "" {
		fmt.Fprintf(&b, " Scene: %s.", sc.Heading)
	}
	if sc.VisualPrompt != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimSuffix(sc.VisualPrompt, "."))
	} else if sc.Action != "" {
		fmt.Fprintf(&b, " Action: %s.", sc.Action)
	}
	cam := sc.Cinematography
	for _, kv := range [][2]string{
		{"Shot size", string(cam.ShotSize)},
		{"Camera angle", string(cam.CameraAngle)},
		{"Lens", string(cam.LensType)},
		{"Style", string(cam.ImageStyle)},
		{"Color grade", string(cam.ColorGrade)},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " %s: %s.", kv[0], kv[1])
		}
	}
	for _, c := range cast {
		fmt.Fprintf(&b, " Keep the likeness of %s from the reference image.", c.Name)
	}
	if info.Genre != "" {
		fmt.Fprintf(&b, " Genre: %s.", info.Genre)
	}
	return b.String()
}

func posterImagePrompt(info domain.ProjectInfo, p domain.Poster, withRef bool) string {
	var b strings.Builder
	if withRef {
		b.WriteString("REFERENCE: Use the identity or style of the attached image as a key reference. ")
	}
	fmt.Fprintf(&b, "Theatrical movie poster for %q.", orDefault(p.Title, info.Title))
	if p.Tagline != "" {
		fmt.Fprintf(&b, " Tagline: %q.", p.Tagline)
	}
	if p.Style != "" {
		fmt.Fprintf(&b, " Style: %s.", p.Style)
	}
	if p.Prompt != "" {
		fmt.Fprintf(&b, " %s", p.Prompt)
	}
	b.WriteString(" Professional typography, high-end key art.")
	return b.String()
}

func budgetPrompt(info domain.ProjectInfo, scale domain.BudgetScale, currency domain.Currency) string {
	return fmt.Sprintf(`Act as an experienced Line Producer for Film & TV.
Project: %s
Type: %s
Genre: %s
Scale: %s
Currency: %s
Script/Story Context:
%s
Characters Count: %d
Scenes Count: %d

Create a preliminary budget estimate based on the script requirements.
Break costs into the categories 'Above The Line', 'Below The Line', 'Post-Production',
'Marketing/Distribution' and 'Contingency'. Use realistic numbers for the scale and currency.
For INR use actual values (5000000 for 50 Lakhs).
Output strictly a JSON array of {"category","item","cost","notes"}.`,
		info.Title, info.ProjectType, info.Genre, scale, currency, scriptContext(info),
		len(info.Characters), len(info.ShowcaseScenes))
}

func roadmapPrompt(info domain.ProjectInfo) string {
	return fmt.Sprintf(`Act as a screenplay development executive for Indian cinema.
Story concept:
%s

Break the story into a roadmap of 8 to 12 beats, from the opening image to the climax.
Write in %s.
Output strictly a JSON array of {"title","description","aiSuggestion"}.`,
		orDefault(info.StoryConcept, info.Logline), languageName(info.Language))
}

func twistPrompt(info domain.ProjectInfo) string {
	return fmt.Sprintf(`Act as a script doctor.
Project: %s (%s)
Logline: %s
Script so far:
%s

Suggest 3 surprising but earned plot twists. Write in %s.
Output strictly a JSON array of {"title","description"}.`,
		info.Title, info.Genre, info.Logline, scriptContext(info), languageName(info.Language))
}

func locationPrompt(info domain.ProjectInfo, requirements, region string) string {
	return fmt.Sprintf(`Act as a professional film location scout.
Project: %s (%s)
Scene vibe: %s
Target region: %s

Find 3 or 4 real-world locations that match this description.
Output strictly a JSON array of {"name","description","suitability","coordinates"},
where suitability says why the place fits the scene and coordinates names the approximate city and state.`,
		info.Title, info.Genre, requirements, orDefault(region, "India"))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
