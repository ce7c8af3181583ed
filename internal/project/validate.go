/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package project

import (
	"fmt"
	"math"

	"cinepitch/internal/domain"
)

// MaxSceneVariants caps the generated variants remembered per storyboard shot.
const MaxSceneVariants = 10

func validateScene(s domain.ShowcaseScene) error {
	if err := s.Cinematography.Validate(); err != nil {
		return err
	}
	if len(s.GeneratedVariants) > MaxSceneVariants {
		return fmt.Errorf("scene %s: %d variants exceed the limit of %d", s.ID, len(s.GeneratedVariants), MaxSceneVariants)
	}
	return nil
}

func validateCharacter(c domain.Character) error {
	if c.RoleType != "" && !c.RoleType.Valid() {
		return fmt.Errorf("unknown role type %q", c.RoleType)
	}
	if c.AspectRatio != "" && !c.AspectRatio.Valid() {
		return fmt.Errorf("unknown aspect ratio %q", c.AspectRatio)
	}
	return nil
}

func validatePoster(p domain.Poster) error {
	if p.AspectRatio != "" && !p.AspectRatio.Valid() {
		return fmt.Errorf("unknown aspect ratio %q", p.AspectRatio)
	}
	return nil
}

func validateBudgetItem(b domain.BudgetLineItem) error {
	if math.IsNaN(b.Cost) || math.IsInf(b.Cost, 0) || b.Cost < 0 {
		return fmt.Errorf("budget item %q: invalid cost %v", b.Item, b.Cost)
	}
	return nil
}
