/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gateway is the contract with the generative AI service that writes text and renders
// images and speech for the studio. Credentials are passed with every call.
package gateway

import (
	"context"
	"errors"

	"cinepitch/internal/domain"
)

var (
	ErrMissingAPIKey = errors.New("gateway: API key is missing")
	ErrQuotaExceeded = errors.New("gateway: quota exceeded, wait a minute before trying again")
	ErrNoContent     = errors.New("gateway: response carried no usable content")
)

type Credentials struct {
	APIKey string
}

func (c Credentials) Valid() bool { return c.APIKey != "" }

// ImageRequest asks for one image. References are data URLs of images whose identity or style the
// result should follow; entries that are not data URLs are ignored.
type ImageRequest struct {
	Prompt      string
	AspectRatio domain.AspectRatio
	References  []string
}

// Gateway generates content. Images and speech come back as data URLs.
type Gateway interface {
	GenerateText(ctx context.Context, creds Credentials, prompt string) (string, error)
	// GenerateJSON asks for a JSON document and unmarshals it into out.
	GenerateJSON(ctx context.Context, creds Credentials, prompt string, out any) error
	GenerateImage(ctx context.Context, creds Credentials, req ImageRequest) (string, error)
	GenerateSpeech(ctx context.Context, creds Credentials, text, voice string) (string, error)
}
