/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

// BuildCharacterPrompt assembles a portrait prompt from the character's attributes.
// Empty attributes are skipped; genre is appended as a style hint when set.
func BuildCharacterPrompt(c Character, genre string) string {
	a := c.Appearance
	parts := []string{
		a.Gender,
		labelled("", a.Age, " years old"),
		a.Nationality,
		string(c.RoleType),
		labelled("Body: ", a.BodyType, ""),
		labelled("Face: ", a.FaceShape, " shape"),
		labelled("", a.SkinTone, " skin"),
		labelled("Texture: ", a.SkinTexture, ""),
		labelled("Hair: ", a.HairStyle, ""),
		labelled("Expression: ", a.Expression, ""),
		labelled("Eyes: ", a.EyeGaze, ""),
		labelled("wearing ", a.Clothing, ""),
		labelled("with ", a.Accessories, ""),
		labelled("set in ", a.Era, ""),
		c.Description,
	}
	var details []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			details = append(details, p)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Cinematic portrait of %s", c.Name)
	if len(details) > 0 {
		b.WriteString(", ")
		b.WriteString(strings.Join(details, ", "))
	}
	b.WriteString(", highly detailed, photorealistic, cinematic lighting, 8k resolution")
	if g := strings.TrimSpace(genre); g != "" {
		fmt.Fprintf(&b, ", %s style", g)
	}
	return b.String()
}

func labelled(prefix, v, suffix string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return prefix + v + suffix
}
