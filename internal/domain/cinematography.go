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
	"slices"
)

type (
	ShotSize    string
	CameraAngle string
	LensType    string
	ImageStyle  string
	ColorGrade  string
)

// Known camera vocabulary offered by the storyboard editor.
var (
	ShotSizes    = []ShotSize{"Extreme Wide", "Wide / Master", "Medium", "Medium Close-Up", "Close-Up", "Extreme Close-Up", "Over the Shoulder", "POV"}
	CameraAngles = []CameraAngle{"Eye Level", "High Angle", "Low Angle", "Bird's Eye", "Worm's Eye", "Dutch Angle"}
	LensTypes    = []LensType{"14mm", "24mm", "35mm", "50mm", "85mm", "135mm", "Anamorphic"}
	ImageStyles  = []ImageStyle{"Hyper Realistic", "Cinematic", "Film Noir", "Anime", "Watercolor", "Pencil Sketch", "3D Render"}
	ColorGrades  = []ColorGrade{"Cinematic", "Teal & Orange", "Black & White", "Warm Vintage", "Cool Blue", "Bleach Bypass"}
)

// Cinematography is the technical metadata of a storyboard shot.
// Empty fields mean "not chosen yet"; non-empty fields must come from the known vocabulary.
type Cinematography struct {
	ShotSize    ShotSize    `json:"shotSize,omitempty"`
	CameraAngle CameraAngle `json:"cameraAngle,omitempty"`
	LensType    LensType    `json:"lensType,omitempty"`
	ImageStyle  ImageStyle  `json:"imageStyle,omitempty"`
	ColorGrade  ColorGrade  `json:"colorGrade,omitempty"`
}

// DefaultCinematography is applied to freshly created scenes.
func DefaultCinematography() Cinematography {
	return Cinematography{
		ShotSize:    "Wide / Master",
		CameraAngle: "Eye Level",
		LensType:    "35mm",
		ImageStyle:  "Hyper Realistic",
		ColorGrade:  "Cinematic",
	}
}

// NewCinematography builds a validated record.
func NewCinematography(shot ShotSize, angle CameraAngle, lens LensType, style ImageStyle, grade ColorGrade) (Cinematography, error) {
	c := Cinematography{ShotSize: shot, CameraAngle: angle, LensType: lens, ImageStyle: style, ColorGrade: grade}
	if err := c.Validate(); err != nil {
		return Cinematography{}, err
	}
	return c, nil
}

// Validate reports the first field holding a value outside the known vocabulary.
func (c Cinematography) Validate() error {
	if c.ShotSize != "" && !slices.Contains(ShotSizes, c.ShotSize) {
		return fmt.Errorf("unknown shot size %q", c.ShotSize)
	}
	if c.CameraAngle != "" && !slices.Contains(CameraAngles, c.CameraAngle) {
		return fmt.Errorf("unknown camera angle %q", c.CameraAngle)
	}
	if c.LensType != "" && !slices.Contains(LensTypes, c.LensType) {
		return fmt.Errorf("unknown lens type %q", c.LensType)
	}
	if c.ImageStyle != "" && !slices.Contains(ImageStyles, c.ImageStyle) {
		return fmt.Errorf("unknown image style %q", c.ImageStyle)
	}
	if c.ColorGrade != "" && !slices.Contains(ColorGrades, c.ColorGrade) {
		return fmt.Errorf("unknown color grade %q", c.ColorGrade)
	}
	return nil
}

// Appearance groups the free-text visual attributes of a character.
type Appearance struct {
	Gender      string `json:"gender"`
	Age         string `json:"age"`
	SkinTone    string `json:"skinTone"`
	HairStyle   string `json:"hairStyle"`
	Clothing    string `json:"clothing"`
	Accessories string `json:"accessories"`
	Nationality string `json:"nationality"`
	Era         string `json:"era"`
	FaceShape   string `json:"faceShape"`
	SkinTexture string `json:"skinTexture"`
	BodyType    string `json:"bodyType"`
	Expression  string `json:"expression"`
	EyeGaze     string `json:"eyeGaze"`
}
