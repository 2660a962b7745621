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


// Package fs locates route definition files on the local file system.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPatterns are the file names matched when a directory is given.
var DefaultPatterns = []string{"*.yaml", "*.yml"}

// FindFiles returns the files selected by path, sorted.
// A regular file is returned as is. A directory is walked recursively for
// files matching DefaultPatterns. Any other path is split into a directory
// and a file name pattern, e.g. "routes/*.yaml".
// Files or directories whose name matches an excluded pattern are skipped.
//
// FindFiles 返回path选中的文件，已排序。
// 普通文件直接返回；目录则递归查找匹配DefaultPatterns的文件；
// 其他情况按目录和文件名模式拆分，例如"routes/*.yaml"。
func FindFiles(path string, excluded ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return []string{path}, nil
	}
	dir, patterns := path, DefaultPatterns
	if err != nil {
		var file string
		dir, file = filepath.Split(path)
		if dir == "" {
			dir = "."
		}
		patterns = []string{file}
	}
	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && matchAny(d.Name(), excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && matchAny(d.Name(), patterns) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func matchAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
