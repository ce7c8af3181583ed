/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "github.com/google/uuid"

// Id prefixes per collection, kept readable in exported files.
const (
	PrefixSlide     = "slide"
	PrefixScene     = "scene"
	PrefixCharacter = "char"
	PrefixPoster    = "poster"
	PrefixAudio     = "audio"
	PrefixVideo     = "vid"
	PrefixLocation  = "loc"
	PrefixCast      = "cast"
	PrefixCrew      = "crew"
	PrefixVault     = "vault"
	PrefixBudget    = "budget"
	PrefixBeat      = "beat"
)

// NewID returns a fresh entity id such as "char-7f0c...". Random v4 ids are never reused.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
