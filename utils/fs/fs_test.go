/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("routes: []"), 0644))
	}
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.yaml", "a.yml", "notes.txt", "sub/c.yaml", "skip/d.yaml")

	files, err := FindFiles(dir, "skip")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)

	files, err = FindFiles(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	single := filepath.Join(dir, "b.yaml")
	files, err = FindFiles(single)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
}

func TestFindFilesExcludesByName(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "main.yaml", "main_test.yaml")

	files, err := FindFiles(dir, "*_test.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "main.yaml")}, files)
}

func TestFindFilesMissingDir(t *testing.T) {
	_, err := FindFiles(filepath.Join(t.TempDir(), "missing", "*.yaml"))
	assert.Error(t, err)
}
