/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cinepitch/internal/domain"
	applog "cinepitch/internal/log"
)

type Options struct {
	BaseURL      string
	TextModel    string
	ImageModels  []string // tried in order until one returns an image
	SpeechModel  string
	Timeout      time.Duration
	SpeechRateHz int
	HTTPClient   *http.Client
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if o.TextModel == "" {
		o.TextModel = "gemini-2.5-flash"
	}
	if len(o.ImageModels) == 0 {
		o.ImageModels = []string{"gemini-2.5-flash-image", "gemini-3-pro-image-preview"}
	}
	if o.SpeechModel == "" {
		o.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.SpeechRateHz <= 0 {
		o.SpeechRateHz = 24000
	}
	return o
}

// HTTP talks to a generateContent style REST endpoint.
type HTTP struct {
	opts   Options
	client *http.Client
	log    *slog.Logger
}

func NewHTTP(opts Options) *HTTP {
	opts = opts.withDefaults()
	c := opts.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTP{opts: opts, client: c, log: applog.WithComponent("gateway")}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType   string        `json:"responseMimeType,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig  `json:"imageConfig,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	var b strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func (r generateResponse) inline() *inlineData {
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData
			}
		}
	}
	return nil
}

// statusError carries a non-2xx reply.
type statusError struct {
	Model  string
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway %s: HTTP %d: %s", e.Model, e.Status, e.Body)
}

func (g *HTTP) generate(ctx context.Context, creds Credentials, model string, req generateRequest) (generateResponse, error) {
	var out generateResponse
	if !creds.Valid() {
		return out, ErrMissingAPIKey
	}
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	u := strings.TrimRight(g.opts.BaseURL, "/") + "/models/" + url.PathEscape(model) + ":generateContent"
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("x-goog-api-key", creds.APIKey)
	resp, err := g.client.Do(hreq)
	if err != nil {
		return out, fmt.Errorf("gateway %s: %w", model, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return out, ErrQuotaExceeded
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(b))
		if strings.Contains(msg, "RESOURCE_EXHAUSTED") {
			return out, ErrQuotaExceeded
		}
		return out, &statusError{Model: model, Status: resp.StatusCode, Body: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("gateway %s: decode: %w", model, err)
	}
	return out, nil
}

func textRequest(prompt, mime string) generateRequest {
	req := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	if mime != "" {
		req.GenerationConfig = &generationConfig{ResponseMimeType: mime}
	}
	return req
}

func (g *HTTP) GenerateText(ctx context.Context, creds Credentials, prompt string) (string, error) {
	resp, err := g.generate(ctx, creds, g.opts.TextModel, textRequest(prompt, ""))
	if err != nil {
		return "", err
	}
	if t := resp.text(); t != "" {
		return t, nil
	}
	return "", ErrNoContent
}

func (g *HTTP) GenerateJSON(ctx context.Context, creds Credentials, prompt string, out any) error {
	resp, err := g.generate(ctx, creds, g.opts.TextModel, textRequest(prompt, "application/json"))
	if err != nil {
		return err
	}
	t := stripFence(resp.text())
	if t == "" {
		return ErrNoContent
	}
	if err := json.Unmarshal([]byte(t), out); err != nil {
		return fmt.Errorf("gateway: decode json answer: %w", err)
	}
	return nil
}

// stripFence removes a markdown code fence some models wrap JSON answers in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// imageAspect maps deck ratios onto ratios the image models accept.
func imageAspect(a domain.AspectRatio) string {
	switch a {
	case domain.AspectSquare:
		return "1:1"
	case domain.AspectPortrait:
		return "3:4"
	default:
		return "16:9"
	}
}

func (g *HTTP) GenerateImage(ctx context.Context, creds Credentials, req ImageRequest) (string, error) {
	var parts []part
	for _, ref := range req.References {
		if d, ok := parseDataURL(ref); ok {
			parts = append(parts, part{InlineData: d})
		}
	}
	parts = append(parts, part{Text: req.Prompt})
	greq := generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &generationConfig{ImageConfig: &imageConfig{AspectRatio: imageAspect(req.AspectRatio)}},
	}

	var lastErr error
	for _, model := range g.opts.ImageModels {
		resp, err := g.generate(ctx, creds, model, greq)
		if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrMissingAPIKey) {
			return "", err
		}
		if err != nil {
			g.log.Warn("image generation failed", slog.String("model", model), slog.Any("err", err))
			lastErr = err
			continue
		}
		if d := resp.inline(); d != nil {
			return "data:" + d.MimeType + ";base64," + d.Data, nil
		}
		g.log.Warn("model returned no image", slog.String("model", model))
	}
	if lastErr != nil {
		return "", fmt.Errorf("image generation failed: %w", lastErr)
	}
	return "", ErrNoContent
}

func (g *HTTP) GenerateSpeech(ctx context.Context, creds Credentials, text, voice string) (string, error) {
	sc := &speechConfig{}
	sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice
	req := generateRequest{
		Contents:         []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"AUDIO"}, SpeechConfig: sc},
	}
	resp, err := g.generate(ctx, creds, g.opts.SpeechModel, req)
	if err != nil {
		return "", err
	}
	d := resp.inline()
	if d == nil {
		return "", ErrNoContent
	}
	pcm, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return "", fmt.Errorf("gateway: decode audio: %w", err)
	}
	wav := PCMToWAV(pcm, g.opts.SpeechRateHz)
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(wav), nil
}

// parseDataURL splits "data:<mime>;base64,<payload>".
func parseDataURL(s string) (*inlineData, bool) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return nil, false
	}
	mime, isB64 := strings.CutSuffix(meta, ";base64")
	if !isB64 {
		return nil, false
	}
	if mime == "" {
		mime = "image/png"
	}
	return &inlineData{MimeType: mime, Data: payload}, true
}
