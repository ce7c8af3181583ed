/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Cross-entity references are plain ids and are not cleaned up when the target is deleted.
// Every lookup below treats an empty or unknown id as "no reference".

// CharacterByID returns the character with id, or false.
func (p *ProjectInfo) CharacterByID(id string) (Character, bool) {
	if id == "" {
		return Character{}, false
	}
	for _, c := range p.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// SceneCharacters resolves the up-to-two character references of a scene, skipping dangling ones.
func (p *ProjectInfo) SceneCharacters(s ShowcaseScene) []Character {
	var out []Character
	for _, id := range []string{s.CharacterRef1ID, s.CharacterRef2ID} {
		if c, ok := p.CharacterByID(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// PosterCharacter resolves the character linked to a poster.
func (p *ProjectInfo) PosterCharacter(pst Poster) (Character, bool) {
	return p.CharacterByID(pst.CharacterRefID)
}
