/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package projectio reads and writes the portable project file and the autosave snapshot.
//
// Both share one JSON shape:
//
//	{"format":"cinepitch.project","version":1,"exportedAt":"...","project":{...},"slides":[...],"activeSlideId":"..."}
//
// Files without format and version (version 0) are the legacy autosave shape and are accepted.
package projectio

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"cinepitch/internal/domain"
	"cinepitch/internal/storage"
)

const (
	FormatName     = "cinepitch.project"
	CurrentVersion = 1
	FileExt        = ".cinepitch.json"
)

//go:embed schema/project.schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("projectio: invalid embedded schema: %v", err))
	}
	return s
}

// ErrInvalidFormat matches every *FormatError via errors.Is.
var ErrInvalidFormat = errors.New("invalid project file format")

// FormatError lists every structural problem found in a project file.
type FormatError struct {
	Problems []string
}

func (e *FormatError) Error() string {
	return "invalid project file: " + strings.Join(e.Problems, "; ")
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

func formatErr(problems ...string) *FormatError { return &FormatError{Problems: problems} }

// Snapshot is the persisted form of a document and its active slide cursor.
type Snapshot struct {
	Format        string             `json:"format,omitempty"`
	Version       int                `json:"version,omitempty"`
	ExportedAt    string             `json:"exportedAt,omitempty"`
	Project       domain.ProjectInfo `json:"project"`
	Slides        []domain.Slide     `json:"slides"`
	ActiveSlideID string             `json:"activeSlideId"`
}

// New wraps a document in a current-version snapshot. The document is copied.
func New(doc domain.Document, activeSlideID string) Snapshot {
	d := doc.Clone()
	if d.Slides == nil {
		d.Slides = []domain.Slide{}
	}
	return Snapshot{
		Format:        FormatName,
		Version:       CurrentVersion,
		Project:       d.Info,
		Slides:        d.Slides,
		ActiveSlideID: activeSlideID,
	}
}

// Document returns the snapshot content as a document.
func (s Snapshot) Document() domain.Document {
	return domain.Document{Info: s.Project, Slides: s.Slides}.Clone()
}

// Encode renders s as indented JSON, stamping format, version and export time.
func Encode(s Snapshot) ([]byte, error) {
	s = stamp(s)
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(b, '\n'), nil
}

// EncodeCompact is Encode without indentation, used for the autosave key.
func EncodeCompact(s Snapshot) ([]byte, error) {
	b, err := json.Marshal(stamp(s))
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return b, nil
}

func stamp(s Snapshot) Snapshot {
	s.Format = FormatName
	s.Version = CurrentVersion
	if s.ExportedAt == "" {
		s.ExportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if s.Slides == nil {
		s.Slides = []domain.Slide{}
	}
	return s
}

// Decode parses and validates a project file. It fails with a *FormatError describing every
// problem; on success absent optional collections are empty and settings carry defaults.
func Decode(data []byte) (Snapshot, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !json.Valid(data) {
		return Snapshot{}, formatErr("not valid JSON")
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Snapshot{}, formatErr(err.Error())
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			problems = append(problems, e.String())
		}
		return Snapshot{}, formatErr(problems...)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, formatErr(err.Error())
	}
	if s.Version > CurrentVersion {
		return Snapshot{}, formatErr(fmt.Sprintf("unsupported version %d (newest known is %d)", s.Version, CurrentVersion))
	}
	s.Project.FillDefaults()
	if s.Slides == nil {
		s.Slides = []domain.Slide{}
	}
	if err := (domain.Document{Info: s.Project, Slides: s.Slides}).Validate(); err != nil {
		return Snapshot{}, formatErr(strings.Split(err.Error(), "\n")...)
	}
	s.Format, s.Version = FormatName, CurrentVersion
	return s, nil
}

// ReadFile decodes the project file at path.
func ReadFile(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read project file: %w", err)
	}
	s, err := Decode(b)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteFile encodes s to path transactionally, keeping a backup of a replaced file.
func WriteFile(path string, s Snapshot) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(path, b, true); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}
