package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrEmptyFunction пустая функция графика
var ErrEmptyFunction = errors.New("chart function is empty")

// Function скомпилированная функция одной переменной x
type Function struct {
	src     string
	program *vm.Program
	env     map[string]any
}

func unary(f func(float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(params))
		}
		v, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		return f(v), nil
	}
}

func binary(f func(a, b float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(params))
		}
		a, err := toFloat(params[0])
		if err != nil {
			return nil, err
		}
		b, err := toFloat(params[1])
		if err != nil {
			return nil, err
		}
		return f(a, b), nil
	}
}

func logBase(base, v float64) float64 {
	return math.Log(v) / math.Log(base)
}

var functions = []expr.Option{
	expr.Function("exp", unary(math.Exp)),
	expr.Function("ln", unary(math.Log)),
	expr.Function("sqrt", unary(math.Sqrt)),
	expr.Function("abs", unary(math.Abs)),
	expr.Function("sin", unary(math.Sin)),
	expr.Function("cos", unary(math.Cos)),
	expr.Function("tan", unary(math.Tan)),
	expr.Function("log", binary(logBase)),
	expr.Function("max", binary(math.Max)),
	expr.Function("min", binary(math.Min)),
}

// CompileFunction разбирает выражение от x. Допускается префикс определения
// вида "f(x) =" или "y =". Степень записывается через ^.
func CompileFunction(src string) (*Function, error) {
	body := src
	if i := strings.Index(src, "="); i >= 0 {
		if err := checkDefinition(strings.TrimSpace(src[:i])); err != nil {
			return nil, err
		}
		body = src[i+1:]
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyFunction
	}

	env := map[string]any{"x": 0.0, "e": math.E, "pi": math.Pi}
	opts := append([]expr.Option{expr.Env(env), expr.DisableAllBuiltins()}, functions...)
	program, err := expr.Compile(body, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Function{src: src, program: program, env: env}, nil
}

// Eval значение в точке x; NaN, если функция там не определена.
// Не предназначен для одновременного вызова из нескольких горутин.
func (f *Function) Eval(x float64) float64 {
	f.env["x"] = x
	out, err := expr.Run(f.program, f.env)
	if err != nil {
		return math.NaN()
	}
	v, err := toFloat(out)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (f *Function) String() string {
	return f.src
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("not a number: %v (%T)", v, v)
}

func checkDefinition(lhs string) error {
	compact := strings.ReplaceAll(lhs, " ", "")
	if compact == "y" || (strings.HasSuffix(compact, "(x)") && len(compact) > 3) {
		return nil
	}
	return fmt.Errorf("invalid function definition %q", lhs)
}
