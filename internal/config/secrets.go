/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

func resolveSecrets() Secrets {
	return Secrets{
		APIKey:     secret(EnvAPIKey, keyringAPIKey),
		CreditsDSN: secret(EnvPGDSN, keyringDSN),
	}
}

func secret(env, key string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	v, _ := keyring.Get(keyringService, key)
	return v
}

// SetAPIKey stores the generative AI key in the OS keyring. An empty key removes it.
func SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ClearAPIKey()
	}
	return keyring.Set(keyringService, keyringAPIKey, key)
}

// ClearAPIKey removes the stored key. Removing a missing key is not an error.
func ClearAPIKey() error {
	if err := keyring.Delete(keyringService, keyringAPIKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// SetCreditsDSN stores the Postgres DSN of the credits ledger in the OS keyring.
func SetCreditsDSN(dsn string) error {
	return keyring.Set(keyringService, keyringDSN, strings.TrimSpace(dsn))
}
