/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

var errNotInline = errors.New("not an inline image")

// embeddable is an image ready for the PDF writer: JPEG bytes as-is, everything else re-encoded
// as 8-bit PNG.
type embeddable struct {
	Type          string // "JPG" or "PNG"
	Data          []byte
	Width, Height int
}

// decodeDataImage turns a base64 data URL into an embeddable image. Remote URLs yield errNotInline.
func decodeDataImage(url string) (embeddable, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return embeddable{}, errNotInline
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return embeddable{}, fmt.Errorf("unsupported data url %q", truncate(meta, 40))
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return embeddable{}, fmt.Errorf("decode base64: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return embeddable{}, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		return embeddable{Type: "JPG", Data: raw, Width: cfg.Width, Height: cfg.Height}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return embeddable{}, fmt.Errorf("decode %s: %w", format, err)
	}
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)
	var out bytes.Buffer
	if err := png.Encode(&out, flat); err != nil {
		return embeddable{}, fmt.Errorf("encode png: %w", err)
	}
	return embeddable{Type: "PNG", Data: out.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales w x h into the box keeping the aspect ratio, centred.
func fit(w, h int, boxX, boxY, boxW, boxH float64) (x, y, fw, fh float64) {
	if w <= 0 || h <= 0 {
		return boxX, boxY, boxW, boxH
	}
	scale := min(boxW/float64(w), boxH/float64(h))
	fw, fh = float64(w)*scale, float64(h)*scale
	return boxX + (boxW-fw)/2, boxY + (boxH-fh)/2, fw, fh
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
