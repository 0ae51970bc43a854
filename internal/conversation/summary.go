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

package conversation

// Summary 跨请求累积的报告参数（company、focusAreas、timeframe、analysisType 等），由调用方持有
type Summary map[string]any

// Merge 将 factors 合并进 s，同名键以新值覆盖；s 为 nil 时新建
func (s Summary) Merge(factors map[string]any) Summary {
	if s == nil {
		s = make(Summary, len(factors))
	}
	for k, v := range factors {
		s[k] = v
	}
	return s
}

// String 读取字符串字段，不存在或类型不符时返回空
func (s Summary) String(key string) string {
	if s == nil {
		return ""
	}
	v, _ := s[key].(string)
	return v
}
