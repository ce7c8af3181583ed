/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cinepitch/internal/credits"
	"cinepitch/internal/domain"
	"cinepitch/internal/gateway"
	"cinepitch/internal/project"
)

// Twist is a suggested plot turn.
type Twist struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// billing tells whether an operation costs a credit.
type billing bool

const (
	free    billing = false
	charged billing = true
)

// generate runs fn against the gateway. Charged operations need a positive balance up front and
// spend one credit after fn succeeds. Failures are reported as one error notification.
func (s *Studio) generate(ctx context.Context, title string, bill billing, fn func(gateway.Credentials) error) error {
	l := s.log.With(slog.String("op", title))
	if s.gw == nil {
		s.notes.Error(title+" failed", "No AI gateway configured")
		return errors.New("studio: no gateway configured")
	}
	creds := s.credentials()
	if !creds.Valid() {
		s.notes.Error("API Key Missing", "Add your API key in settings to generate AI content.")
		return gateway.ErrMissingAPIKey
	}
	if bill && s.ledger != nil {
		p, err := s.ledger.Profile(ctx, s.userID)
		if err != nil {
			s.notes.Error(title+" failed", "Could not check your credits")
			return err
		}
		if p.Credits < 1 {
			s.notes.Error("Insufficient Credits", "Buy credits to keep generating images.")
			return credits.ErrInsufficientCredits
		}
	}
	if err := fn(creds); err != nil {
		l.Warn("generation failed", slog.Any("err", err))
		msg := err.Error()
		if errors.Is(err, gateway.ErrQuotaExceeded) {
			msg = "Free tier limit reached. Please wait 1-2 minutes before trying again."
		}
		s.notes.Error(title+" failed", msg)
		return err
	}
	if bill && s.ledger != nil {
		ok, err := s.ledger.DeductCredit(ctx, s.userID, title)
		if err != nil || !ok {
			l.Warn("credit deduction failed", slog.Bool("ok", ok), slog.Any("err", err))
		}
	}
	return nil
}

// GenerateSlideImage renders the slide image from its prompt and stores it on the slide.
func (s *Studio) GenerateSlideImage(ctx context.Context, slideID string) error {
	sl, ok := project.Find(s.model, project.Slides, slideID)
	if !ok {
		return fmt.Errorf("slide %s: %w", slideID, project.ErrNotFound)
	}
	prompt := slideImagePrompt(s.model.Info(), sl)
	return s.generate(ctx, "Slide image", charged, func(c gateway.Credentials) error {
		img, err := s.gw.GenerateImage(ctx, c, gateway.ImageRequest{Prompt: prompt, AspectRatio: domain.AspectWide})
		if err != nil {
			return err
		}
		return s.model.UpdateSlide(slideID, func(x *domain.Slide) error {
			x.ImageURL = img
			if x.ImagePrompt == "" {
				x.ImagePrompt = prompt
			}
			return nil
		})
	})
}

// GenerateCharacterPortrait renders a portrait from the character's appearance attributes.
func (s *Studio) GenerateCharacterPortrait(ctx context.Context, characterID string) error {
	c, ok := s.model.ResolveCharacter(characterID)
	if !ok {
		return fmt.Errorf("character %s: %w", characterID, project.ErrNotFound)
	}
	prompt := domain.BuildCharacterPrompt(c, s.model.Info().Genre)
	aspect := c.AspectRatio
	if aspect == "" {
		aspect = domain.AspectPortrait
	}
	var refs []string
	for _, r := range []string{c.ReferenceImageURL, c.ActionReferenceImageURL} {
		if r != "" {
			refs = append(refs, r)
		}
	}
	return s.generate(ctx, "Character portrait", charged, func(cr gateway.Credentials) error {
		img, err := s.gw.GenerateImage(ctx, cr, gateway.ImageRequest{Prompt: prompt, AspectRatio: aspect, References: refs})
		if err != nil {
			return err
		}
		return project.Update(s.model, project.Characters, characterID, func(x *domain.Character) error {
			x.ImageURL = img
			x.VisualPrompt = prompt
			return nil
		})
	})
}

// GenerateSceneImage renders a storyboard variant. Portraits of referenced characters are sent
// as likeness references; dangling references are skipped.
func (s *Studio) GenerateSceneImage(ctx context.Context, sceneID string) error {
	sc, ok := project.Find(s.model, project.Scenes, sceneID)
	if !ok {
		return fmt.Errorf("scene %s: %w", sceneID, project.ErrNotFound)
	}
	info := s.model.Info()
	var (
		cast []domain.Character
		refs []string
	)
	for _, c := range info.SceneCharacters(sc) {
		if c.ImageURL != "" {
			cast = append(cast, c)
			refs = append(refs, c.ImageURL)
		}
	}
	prompt := sceneImagePrompt(info, sc, cast)
	return s.generate(ctx, "Storyboard image", charged, func(c gateway.Credentials) error {
		img, err := s.gw.GenerateImage(ctx, c, gateway.ImageRequest{Prompt: prompt, AspectRatio: domain.AspectWide, References: refs})
		if err != nil {
			return err
		}
		return s.model.AddSceneVariant(sceneID, img)
	})
}

// GeneratePosterImage renders key art. A linked character's portrait takes precedence over the
// poster's own reference image.
func (s *Studio) GeneratePosterImage(ctx context.Context, posterID string) error {
	p, ok := project.Find(s.model, project.Posters, posterID)
	if !ok {
		return fmt.Errorf("poster %s: %w", posterID, project.ErrNotFound)
	}
	info := s.model.Info()
	var refs []string
	if c, ok := info.PosterCharacter(p); ok && c.ImageURL != "" {
		refs = append(refs, c.ImageURL)
	} else if p.ReferenceImageURL != "" {
		refs = append(refs, p.ReferenceImageURL)
	}
	aspect := p.AspectRatio
	if aspect == "" {
		aspect = domain.AspectPortrait
	}
	prompt := posterImagePrompt(info, p, len(refs) > 0)
	return s.generate(ctx, "Poster image", charged, func(c gateway.Credentials) error {
		img, err := s.gw.GenerateImage(ctx, c, gateway.ImageRequest{Prompt: prompt, AspectRatio: aspect, References: refs})
		if err != nil {
			return err
		}
		return project.Update(s.model, project.Posters, posterID, func(x *domain.Poster) error {
			x.ImageURL = img
			return nil
		})
	})
}

// GenerateVoiceOver synthesizes narration and adds it to the audio assets.
func (s *Studio) GenerateVoiceOver(ctx context.Context, text, voice string) (domain.AudioAsset, error) {
	var added domain.AudioAsset
	err := s.generate(ctx, "Voice over", free, func(c gateway.Credentials) error {
		url, err := s.gw.GenerateSpeech(ctx, c, text, voice)
		if err != nil {
			return err
		}
		added, err = project.Append(s.model, project.AudioAssets, domain.AudioAsset{
			Text:      text,
			Voice:     voice,
			AudioURL:  url,
			Source:    domain.SourceAI,
			CreatedAt: time.Now().UnixMilli(),
		})
		return err
	})
	return added, err
}

// EstimateBudget asks for a line-item estimate and applies it together with scale and currency.
func (s *Studio) EstimateBudget(ctx context.Context, scale domain.BudgetScale, currency domain.Currency) error {
	if !scale.Valid() || !currency.Valid() {
		return fmt.Errorf("budget %s/%s: %w", scale, currency, project.ErrInvalid)
	}
	prompt := budgetPrompt(s.model.Info(), scale, currency)
	return s.generate(ctx, "Budget estimate", free, func(c gateway.Credentials) error {
		var items []domain.BudgetLineItem
		if err := s.gw.GenerateJSON(ctx, c, prompt, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			return gateway.ErrNoContent
		}
		return s.model.ApplyBudgetEstimate(items, scale, currency)
	})
}

// GenerateRoadmap replaces the script roadmap with beats derived from the story concept.
func (s *Studio) GenerateRoadmap(ctx context.Context) error {
	prompt := roadmapPrompt(s.model.Info())
	return s.generate(ctx, "Script roadmap", free, func(c gateway.Credentials) error {
		var beats []domain.ScriptBeat
		if err := s.gw.GenerateJSON(ctx, c, prompt, &beats); err != nil {
			return err
		}
		for i := range beats {
			beats[i].ID = domain.NewID(domain.PrefixBeat)
		}
		return s.model.PatchInfo(func(p *domain.ProjectInfo) error {
			p.ScriptRoadmap = beats
			return nil
		})
	})
}

// FindLocations asks for real-world filming locations matching the scene requirements and adds
// the candidates to the location collection with fresh ids.
func (s *Studio) FindLocations(ctx context.Context, requirements, region string) ([]domain.LocationAsset, error) {
	if strings.TrimSpace(requirements) == "" {
		return nil, fmt.Errorf("location requirements: %w", project.ErrInvalid)
	}
	prompt := locationPrompt(s.model.Info(), requirements, region)
	var added []domain.LocationAsset
	err := s.generate(ctx, "Location scouting", free, func(c gateway.Credentials) error {
		var found []domain.LocationAsset
		if err := s.gw.GenerateJSON(ctx, c, prompt, &found); err != nil {
			return err
		}
		if len(found) == 0 {
			return gateway.ErrNoContent
		}
		for i := range found {
			found[i].ID = ""
			found[i].ImageURL = ""
		}
		var err error
		added, err = project.AppendAll(s.model, project.Locations, found)
		return err
	})
	return added, err
}

// SuggestTwists proposes plot twists without changing the document.
func (s *Studio) SuggestTwists(ctx context.Context) ([]Twist, error) {
	prompt := twistPrompt(s.model.Info())
	var out []Twist
	err := s.generate(ctx, "Twist ideas", free, func(c gateway.Credentials) error {
		return s.gw.GenerateJSON(ctx, c, prompt, &out)
	})
	return out, err
}
