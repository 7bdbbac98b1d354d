// Copyright 2025 Chitragupta Authors
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

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
)

// calculatorArgs is reflected into the calculator tool's input schema.
type calculatorArgs struct {
	Expression string `json:"expression" jsonschema:"required,description=An arithmetic expression, e.g. '6*7'"`
}

// CalculatorHandler evaluates a small arithmetic expression. It exists
// mainly to give the prompt loop and tests a real handler to dispatch
// through, the way a minimal built-in tool would in production.
type CalculatorHandler struct{}

// NewCalculatorHandler builds the calculator tool.
func NewCalculatorHandler() *CalculatorHandler { return &CalculatorHandler{} }

func (h *CalculatorHandler) Definition() Definition {
	return Definition{
		Name:        "calculator",
		Description: "Evaluates an arithmetic expression and returns the numeric result.",
		InputSchema: GenerateSchema[calculatorArgs](),
	}
}

func (h *CalculatorHandler) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, fmt.Errorf("calculator: %w", err)
	}
	out, err := evalArithmetic(a.Expression)
	if err != nil {
		return Result{}, fmt.Errorf("calculator: %w", err)
	}
	return Result{Content: out}, nil
}

// evalArithmetic evaluates a numeric expression (+, -, *, /, parens)
// by parsing it as a Go expression and folding constants. No library in
// the reference corpus covers standalone expression evaluation, and
// go/{parser,constant} already gives an exact-arithmetic evaluator for
// the small grammar this built-in needs.
func evalArithmetic(expression string) (string, error) {
	node, err := parser.ParseExpr(expression)
	if err != nil {
		return "", err
	}
	val, err := foldConst(node)
	if err != nil {
		return "", err
	}
	return val.ExactString(), nil
}

func foldConst(n ast.Expr) (constant.Value, error) {
	switch e := n.(type) {
	case *ast.BasicLit:
		return constant.MakeFromLiteral(e.Value, e.Kind, 0), nil
	case *ast.ParenExpr:
		return foldConst(e.X)
	case *ast.UnaryExpr:
		x, err := foldConst(e.X)
		if err != nil {
			return nil, err
		}
		return constant.UnaryOp(e.Op, x, 0), nil
	case *ast.BinaryExpr:
		x, err := foldConst(e.X)
		if err != nil {
			return nil, err
		}
		y, err := foldConst(e.Y)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.QUO:
			return constant.BinaryOp(x, token.QUO, y), nil
		default:
			return constant.BinaryOp(x, e.Op, y), nil
		}
	default:
		return nil, fmt.Errorf("unsupported expression syntax")
	}
}

// echoArgs is reflected into the echo tool's input schema.
type echoArgs struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

// EchoHandler returns its input unchanged, for exercising the dispatch
// path without any external dependency.
type EchoHandler struct{}

// NewEchoHandler builds the echo tool.
func NewEchoHandler() *EchoHandler { return &EchoHandler{} }

func (h *EchoHandler) Definition() Definition {
	return Definition{
		Name:        "echo",
		Description: "Echoes the given text back unchanged.",
		InputSchema: GenerateSchema[echoArgs](),
	}
}

func (h *EchoHandler) Execute(ctx context.Context, args json.RawMessage) (Result, error) {
	var a echoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, fmt.Errorf("echo: %w", err)
	}
	return Result{Content: a.Text}, nil
}
