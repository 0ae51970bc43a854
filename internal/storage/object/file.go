// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package object

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"finance-assistant/pkg/errors"
)

// FileStore 本地目录对象存储，报告 PDF 默认落在 static/reports
type FileStore struct {
	root string
}

// NewFileStore 创建文件存储并确保根目录存在
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create object root %s", root)
	}
	return &FileStore{root: root}, nil
}

// Root 返回根目录
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(path string) (string, string, error) {
	key, err := CleanKey(path)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put 写入对象；先写临时文件再 rename
func (s *FileStore) Put(ctx context.Context, path string, data io.Reader, size int64, metadata map[string]string) error {
	_, full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrap(err, "create object dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp object")
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write object data")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp object")
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "commit object")
	}
	return nil
}

// Get 读取对象
func (s *FileStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	key, full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "object %s", key)
		}
		return nil, errors.Wrapf(err, "open object %s", key)
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, errors.Wrapf(errors.ErrNotFound, "object %s", key)
	}
	return f, nil
}

// Delete 删除对象
func (s *FileStore) Delete(ctx context.Context, path string) error {
	key, full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrNotFound, "object %s", key)
		}
		return errors.Wrapf(err, "delete object %s", key)
	}
	return nil
}

// List 列出对象
func (s *FileStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	var results []*ObjectInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		results = append(results, &ObjectInfo{
			Path:      key,
			Size:      info.Size(),
			CreatedAt: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// Exists 检查对象是否存在
func (s *FileStore) Exists(ctx context.Context, path string) (bool, error) {
	_, full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// Close 关闭存储
func (s *FileStore) Close() error {
	return nil
}
