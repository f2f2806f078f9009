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

package qconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesSlotsAndMaxRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qconfig.yaml")
	if err := os.WriteFile(path, []byte("slots: 4\nmaxRows: 1000\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Slots != 4 || cfg.MaxRows != 1000 {
		t.Fatalf("cfg = %+v, want Slots=4 MaxRows=1000", cfg)
	}
}

func TestLoadDefaultsMaxRowsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qconfig.yaml")
	if err := os.WriteFile(path, []byte("slots: 2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRows != -1 {
		t.Fatalf("MaxRows = %d, want -1 when absent from YAML", cfg.MaxRows)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/qconfig.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
