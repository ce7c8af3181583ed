/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package studio

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cinepitch/internal/domain"
	"cinepitch/internal/project"
)

// maxVaultFile bounds one attachment; vault files are stored inline as data URLs.
const maxVaultFile = 50 << 20

// AddVaultFile stores an uploaded file in the vault as a data URL. An empty or generic mimeType
// is sniffed from the content and an empty title falls back to the file name.
func (s *Studio) AddVaultFile(fileName, mimeType string, data []byte, title, description string) (domain.VaultItem, error) {
	if len(data) == 0 {
		return domain.VaultItem{}, fmt.Errorf("%s is empty: %w", fileName, project.ErrInvalid)
	}
	if len(data) > maxVaultFile {
		return domain.VaultItem{}, fmt.Errorf("%s exceeds %d bytes: %w", fileName, maxVaultFile, project.ErrInvalid)
	}
	name := filepath.Base(fileName)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if title == "" {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	item := domain.VaultItem{
		Type:        domain.DetectVaultType(mimeType, name),
		Title:       title,
		Description: description,
		URL:         "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		FileName:    name,
		FileSize:    domain.FormatFileSize(int64(len(data))),
		CreatedAt:   time.Now().UnixMilli(),
	}
	return project.Append(s.model, project.Vault, item)
}
