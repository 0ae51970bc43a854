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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"100 * 1.5", "150.0"},
		{"2500 - 1750", "750"},
		{"((5+3)*2)/4", "4.0"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"7 % -3", "-2"},
		{"10 % 3", "1"},
		{"2 ** 3 ** 2", "512"},
		{"-2 ** 2", "-4"},
		{"2 ** -1", "0.5"},
		{"(120 - 100) / 100", "0.2"},
		{".5 + 1", "1.5"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"1 ** 1000000000", "1"},
		{"3 * -2", "-6"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.expr))
		})
	}
}

func TestCalculate_Errors(t *testing.T) {
	assert.Equal(t, "Invalid characters in math expression.", Calculate("__import__('os')"))
	assert.Equal(t, "Invalid characters in math expression.", Calculate("2^3"))
	assert.Equal(t, "Error evaluating math expression: division by zero", Calculate("1/0"))
	assert.Equal(t, "Error evaluating math expression: division by zero", Calculate("5 % 0"))
	assert.Contains(t, Calculate("(1+2"), "Error evaluating math expression: missing closing parenthesis")
	assert.Contains(t, Calculate("1 +"), "Error evaluating math expression:")
	assert.Contains(t, Calculate(""), "Error evaluating math expression:")
	assert.Contains(t, Calculate("1 2"), "Error evaluating math expression:")
}

func TestMathTool_Execute(t *testing.T) {
	res, err := NewMathTool().Execute(context.Background(), map[string]any{"expression": "6*7"})
	assert.NoError(t, err)
	assert.Equal(t, "42", res.Content)
}
