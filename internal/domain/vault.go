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

// DetectVaultType classifies an upload by MIME type, falling back to the file extension.
func DetectVaultType(mimeType, fileName string) VaultItemType {
	mt := strings.ToLower(mimeType)
	name := strings.ToLower(fileName)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return VaultImage
	case strings.HasPrefix(mt, "video/"):
		return VaultVideo
	case mt == "application/pdf":
		return VaultPDF
	case strings.HasPrefix(mt, "text/"), strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".md"):
		return VaultText
	case strings.HasSuffix(name, ".zip"), strings.HasSuffix(name, ".rar"):
		return VaultArchive
	case strings.HasPrefix(mt, "audio/"):
		return VaultAudio
	default:
		return VaultUnknown
	}
}

// FormatFileSize renders a byte count the way the vault lists it ("12.3 KB").
func FormatFileSize(n int64) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

// VaultFilter selects a subset of vault items.
type VaultFilter string

const (
	FilterAll   VaultFilter = "ALL"
	FilterImage VaultFilter = "IMAGE"
	FilterVideo VaultFilter = "VIDEO"
	FilterDocs  VaultFilter = "DOCS"
)

// FilterVault returns the items matching f. Unknown filters behave like FilterAll.
func FilterVault(items []VaultItem, f VaultFilter) []VaultItem {
	keep := func(VaultItem) bool { return true }
	switch f {
	case FilterImage:
		keep = func(it VaultItem) bool { return it.Type == VaultImage }
	case FilterVideo:
		keep = func(it VaultItem) bool { return it.Type == VaultVideo }
	case FilterDocs:
		keep = func(it VaultItem) bool {
			return it.Type == VaultPDF || it.Type == VaultText || it.Type == VaultArchive
		}
	}
	out := make([]VaultItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
