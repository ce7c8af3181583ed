/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ApplyJSON applies a partial ProjectInfo object. Every key present in body replaces the whole
// field; nothing of the previous value survives, so a new collection element never inherits
// fields of the element it displaces. Unknown keys are ignored.
func (p *ProjectInfo) ApplyJSON(body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("project patch: %w", err)
	}
	v := reflect.ValueOf(p).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		msg, ok := raw[name]
		if !ok || name == "" || name == "-" {
			continue
		}
		fresh := reflect.New(t.Field(i).Type)
		if err := json.Unmarshal(msg, fresh.Interface()); err != nil {
			return fmt.Errorf("project patch %s: %w", name, err)
		}
		v.Field(i).Set(fresh.Elem())
	}
	return nil
}
