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

// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
	// ErrUnavailable 外部服务不可用（LLM、搜索、抓取），调用方应降级而非报错
	ErrUnavailable = errors.New("service unavailable")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Unavailable 将 err 标记为 ErrUnavailable，保留原始错误链
func Unavailable(service string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", service, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUnavailable, err)
}

// IsUnavailable 判断错误是否为 ErrUnavailable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
