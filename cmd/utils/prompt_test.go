// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func TestGetPassPhraseWithList(t *testing.T) {
	passwords := []string{"owner", "keeper", "reporter"}
	tests := []struct {
		name         string
		confirmation bool
		index        int
		want         string
	}{
		{"first key", false, 0, "owner"},
		{"index past the list reuses the last", false, 5, "reporter"},
		{"confirmation is skipped for listed passwords", true, 1, "keeper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetPassPhraseWithList("Unlock key", tt.confirmation, tt.index, passwords)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMakePasswordList(t *testing.T) {
	flags := []cli.Flag{PasswordFileFlag}
	assert.Nil(t, MakePasswordList(newContext(t, flags, nil)))

	path := filepath.Join(t.TempDir(), "passwords.txt")
	if err := os.WriteFile(path, []byte("owner\r\nkeeper\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got := MakePasswordList(newContext(t, flags, []string{"--password", path}))
	assert.Equal(t, []string{"owner", "keeper", ""}, got)
}
