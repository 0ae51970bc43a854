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
	"path"
	"strings"

	"finance-assistant/pkg/errors"
)

// CleanKey 校验并规范化对象键，拒绝绝对路径与 ".." 穿越
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.Wrap(errors.ErrInvalidArg, "empty object key")
	}
	if strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return "", errors.Wrapf(errors.ErrInvalidArg, "object key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errors.Wrapf(errors.ErrInvalidArg, "object key %q", key)
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", errors.Wrapf(errors.ErrInvalidArg, "object key %q", key)
	}
	return cleaned, nil
}
