// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package qconfig loads a Dataflow's run-level configuration (slot count,
// row cap) from a YAML file, so a driver program doesn't need to hardcode
// concurrency or debugging caps.
package qconfig

import (
	"os"

	"sigs.k8s.io/yaml"
)

// Config mirrors the options dataflow.Open accepts, in a form a driver
// program can load from disk and feed into dataflow.WithSlots /
// dataflow.WithMaxRows / dataflow.WithScale.
type Config struct {
	Slots   int     `json:"slots"`
	MaxRows int64   `json:"maxRows"`
	Scale   float64 `json:"scale"`
}

// Load reads and parses path as YAML into a Config. A zero Slots means
// single-threaded, matching dataflow.Open's own default. A MaxRows absent
// from the file defaults to -1 (no cap) and an absent Scale to 1
// (neutral); a value written in the file, including 0, is kept as is.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{MaxRows: -1, Scale: 1}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
