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

package builtin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"finance-assistant/internal/tool"
)

const mathAllowed = "0123456789+-*/().% "

// MathTool 算术表达式求值：+ - * / // % ** 与括号
type MathTool struct{}

// NewMathTool 创建 math 工具
func NewMathTool() *MathTool { return &MathTool{} }

// Name 实现 tool.Tool
func (t *MathTool) Name() string { return "math" }

// Description 实现 tool.Tool
func (t *MathTool) Description() string {
	return "Perform simple math calculations such as addition, subtraction, multiplication, division, " +
		"percentage changes and differences. Input is an arithmetic expression like '((5+3)*2)/4'."
}

// Schema 实现 tool.Tool
func (t *MathTool) Schema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"expression": {Type: "string", Description: "arithmetic expression"},
		},
		Required: []string{"expression"},
	}
}

// Execute 实现 tool.Tool
func (t *MathTool) Execute(_ context.Context, input map[string]any) (tool.ToolResult, error) {
	expr, _ := input["expression"].(string)
	return tool.ToolResult{Content: Calculate(expr)}, nil
}

// Calculate 求值并格式化；非法字符与求值错误以固定文本返回
func Calculate(expr string) string {
	for _, r := range expr {
		if !strings.ContainsRune(mathAllowed, r) {
			return "Invalid characters in math expression."
		}
	}
	v, err := evalExpression(expr)
	if err != nil {
		return "Error evaluating math expression: " + err.Error()
	}
	return v.String()
}

// number 整数与浮点分开保存，整数运算保持整数结果
type number struct {
	isInt bool
	i     int64
	f     float64
}

func intNum(i int64) number     { return number{isInt: true, i: i} }
func floatNum(f float64) number { return number{f: f} }

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) String() string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}
	f := n.f
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if abs := math.Abs(f); abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

var errDivisionByZero = errors.New("division by zero")

type mathParser struct {
	src string
	pos int
}

func evalExpression(src string) (number, error) {
	p := &mathParser{src: src}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return number{}, errors.New("empty expression")
	}
	v, err := p.expr()
	if err != nil {
		return number{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return number{}, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

func (p *mathParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *mathParser) peek(tok string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], tok)
}

func (p *mathParser) consume(tok string) bool {
	if p.peek(tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

// expr := term (('+'|'-') term)*
func (p *mathParser) expr() (number, error) {
	left, err := p.term()
	if err != nil {
		return number{}, err
	}
	for {
		switch {
		case p.consume("+"):
			right, err := p.term()
			if err != nil {
				return number{}, err
			}
			left = add(left, right)
		case p.consume("-"):
			right, err := p.term()
			if err != nil {
				return number{}, err
			}
			left = add(left, negate(right))
		default:
			return left, nil
		}
	}
}

// term := factor (('*'|'//'|'/'|'%') factor)*
func (p *mathParser) term() (number, error) {
	left, err := p.factor()
	if err != nil {
		return number{}, err
	}
	for {
		var op string
		switch {
		case p.peek("**"):
			return left, nil
		case p.consume("*"):
			op = "*"
		case p.consume("//"):
			op = "//"
		case p.consume("/"):
			op = "/"
		case p.consume("%"):
			op = "%"
		default:
			return left, nil
		}
		right, err := p.factor()
		if err != nil {
			return number{}, err
		}
		if left, err = binary(op, left, right); err != nil {
			return number{}, err
		}
	}
}

// factor := ('+'|'-') factor | power
func (p *mathParser) factor() (number, error) {
	switch {
	case p.consume("+"):
		return p.factor()
	case p.consume("-"):
		v, err := p.factor()
		if err != nil {
			return number{}, err
		}
		return negate(v), nil
	}
	return p.power()
}

// power := atom ['**' factor]，右结合
func (p *mathParser) power() (number, error) {
	base, err := p.atom()
	if err != nil {
		return number{}, err
	}
	if !p.consume("**") {
		return base, nil
	}
	exp, err := p.factor()
	if err != nil {
		return number{}, err
	}
	return pow(base, exp)
}

func (p *mathParser) atom() (number, error) {
	p.skipSpace()
	if p.consume("(") {
		v, err := p.expr()
		if err != nil {
			return number{}, err
		}
		if !p.consume(")") {
			return number{}, errors.New("missing closing parenthesis")
		}
		return v, nil
	}
	start := p.pos
	dot := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' && !dot {
			dot = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if lit == "" || lit == "." {
		if p.pos < len(p.src) {
			return number{}, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
		}
		return number{}, errors.New("unexpected end of expression")
	}
	if !dot {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return intNum(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return number{}, fmt.Errorf("invalid number %q", lit)
	}
	return floatNum(f), nil
}

func negate(n number) number {
	if n.isInt && n.i != math.MinInt64 {
		return intNum(-n.i)
	}
	return floatNum(-n.float())
}

func add(a, b number) number {
	if a.isInt && b.isInt {
		s := a.i + b.i
		// 同号相加溢出时退化为浮点
		if (a.i >= 0) == (b.i >= 0) && (s >= 0) != (a.i >= 0) {
			return floatNum(float64(a.i) + float64(b.i))
		}
		return intNum(s)
	}
	return floatNum(a.float() + b.float())
}

func binary(op string, a, b number) (number, error) {
	switch op {
	case "*":
		if a.isInt && b.isInt {
			if a.i == 0 || b.i == 0 {
				return intNum(0), nil
			}
			p := a.i * b.i
			if p/b.i == a.i && !(a.i == -1 && b.i == math.MinInt64) && !(b.i == -1 && a.i == math.MinInt64) {
				return intNum(p), nil
			}
		}
		return floatNum(a.float() * b.float()), nil
	case "/":
		if b.float() == 0 {
			return number{}, errDivisionByZero
		}
		return floatNum(a.float() / b.float()), nil
	case "//":
		if b.float() == 0 {
			return number{}, errDivisionByZero
		}
		if a.isInt && b.isInt {
			q := a.i / b.i
			if (a.i%b.i != 0) && ((a.i < 0) != (b.i < 0)) {
				q--
			}
			return intNum(q), nil
		}
		return floatNum(math.Floor(a.float() / b.float())), nil
	case "%":
		if b.float() == 0 {
			return number{}, errDivisionByZero
		}
		if a.isInt && b.isInt {
			m := a.i % b.i
			if m != 0 && ((m < 0) != (b.i < 0)) {
				m += b.i
			}
			return intNum(m), nil
		}
		m := math.Mod(a.float(), b.float())
		if m != 0 && ((m < 0) != (b.float() < 0)) {
			m += b.float()
		}
		return floatNum(m), nil
	}
	return number{}, fmt.Errorf("unknown operator %q", op)
}

func pow(base, exp number) (number, error) {
	if base.isInt && exp.isInt && exp.i >= 0 {
		switch base.i {
		case 0:
			if exp.i == 0 {
				return intNum(1), nil
			}
			return intNum(0), nil
		case 1:
			return intNum(1), nil
		case -1:
			if exp.i%2 == 0 {
				return intNum(1), nil
			}
			return intNum(-1), nil
		}
		if exp.i > 63 {
			return floatNum(math.Pow(base.float(), exp.float())), nil
		}
		result := int64(1)
		b := base.i
		for e := exp.i; e > 0; e-- {
			next := result * b
			if b != 0 && next/b != result {
				return floatNum(math.Pow(base.float(), exp.float())), nil
			}
			result = next
		}
		return intNum(result), nil
	}
	if base.float() == 0 && exp.float() < 0 {
		return number{}, errors.New("0.0 cannot be raised to a negative power")
	}
	r := math.Pow(base.float(), exp.float())
	if math.IsNaN(r) {
		return number{}, errors.New("math domain error")
	}
	return floatNum(r), nil
}
