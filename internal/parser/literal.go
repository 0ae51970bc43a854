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

package parser

import (
	"strconv"
	"strings"
)

// evalListLiteral 按 Python 字面量语法解析列表：支持单/双引号字符串、数字、True/False/None、
// 嵌套列表、元组、字典与尾随逗号。顶层不是列表时返回 ok=false。
func evalListLiteral(s string) ([]any, bool) {
	p := &literalParser{src: s}
	p.skipSpace()
	if p.peek() != '[' {
		return nil, false
	}
	v, ok := p.value()
	if !ok {
		return nil, false
	}
	p.skipSpace()
	if !p.eof() {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, bool) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '{':
		return p.dict()
	case c == '\'' || c == '"':
		return p.stringLit()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *literalParser) sequence(open, close byte) (any, bool) {
	p.pos++ // open
	items := make([]any, 0)
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			return items, true
		}
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return items, true
		default:
			return nil, false
		}
	}
}

func (p *literalParser) dict() (any, bool) {
	p.pos++ // {
	out := make(map[string]any)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return out, true
		}
		k, ok := p.value()
		if !ok {
			return nil, false
		}
		key, ok := k.(string)
		if !ok {
			return nil, false
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, false
		}
		p.pos++
		v, ok := p.value()
		if !ok {
			return nil, false
		}
		out[key] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, true
		default:
			return nil, false
		}
	}
}

// stringLit 解析一个或多个相邻字符串字面量（相邻字面量拼接）
func (p *literalParser) stringLit() (any, bool) {
	var b strings.Builder
	for {
		s, ok := p.str()
		if !ok {
			return nil, false
		}
		b.WriteString(s)
		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			p.pos = save
			return b.String(), true
		}
	}
}

func (p *literalParser) str() (string, bool) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), true
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
			p.pos++
		case c == '\n':
			return "", false
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", false
}

func (p *literalParser) number() (any, bool) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	for !p.eof() {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '_' {
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return float64(i), true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

func (p *literalParser) keyword() (any, bool) {
	for _, kw := range []struct {
		word  string
		value any
	}{{"True", true}, {"False", false}, {"None", nil}} {
		if strings.HasPrefix(p.src[p.pos:], kw.word) {
			p.pos += len(kw.word)
			return kw.value, true
		}
	}
	return nil, false
}
