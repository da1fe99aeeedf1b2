/*
Copyright © 2024 the pgwcloud authors.
This file is part of pgwcloud.

pgwcloud is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

pgwcloud is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with pgwcloud.  If not, see <http://www.gnu.org/licenses/>.
*/

package pgwutil

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/pgwclouds/pgwcloud"
)

// Outputter calculates derived output variables from the named results
// of a command.
//
// outputVariables maps the names of the derived variables to expressions
// that define how they are calculated. Expressions can use the results of
// the command, other output variables and the functions in
// outputFunctions.
type Outputter struct {
	outputVariables map[string]string
	expressions     map[string]*govaluate.EvaluableExpression
	inputVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

var outputNameRegexp = regexp.MustCompile(`^[A-Za-z]\w*$`)

// NewOutputter initializes a new Outputter and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)', 'log(x)' and 'sqrt(x)'.
//
// 'ratio(x, y)' which returns x/y, or 0 if y is 0.
//
// 'emissivity(LWP)' which estimates the longwave emissivity of a liquid
// cloud from its water path [kg/m2] with a mass absorption coefficient of
// 130 m2/kg.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":  oneArg("exp", math.Exp),
		"log":  oneArg("log", math.Log),
		"sqrt": oneArg("sqrt", math.Sqrt),
		"ratio": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("pgwutil: got %d arguments for function 'ratio', but needs 2", len(args))
			}
			x, y := args[0].(float64), args[1].(float64)
			if y == 0 {
				return 0., nil
			}
			return x / y, nil
		},
		"emissivity": oneArg("emissivity", func(lwp float64) float64 {
			return 1 - math.Exp(-130*lwp)
		}),
	}
	for k, f := range outputFunctions {
		funcs[k] = f
	}

	o := &Outputter{
		outputVariables: outputVariables,
		expressions:     make(map[string]*govaluate.EvaluableExpression),
		outputFunctions: funcs,
	}
	seen := make(map[string]bool)
	for name, expr := range outputVariables {
		if !outputNameRegexp.MatchString(name) {
			return nil, fmt.Errorf("pgwutil: output variable name '%s' includes unsupported characters", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("pgwutil: output variable %s: %v", name, err)
		}
		o.expressions[name] = e
		for _, v := range e.Vars() {
			if _, ok := outputVariables[v]; !ok && !seen[v] {
				seen[v] = true
				o.inputVariables = append(o.inputVariables, v)
			}
		}
	}
	sort.Strings(o.inputVariables)
	if err := o.checkCycles(); err != nil {
		return nil, err
	}
	return o, nil
}

func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("pgwutil: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		return f(args[0].(float64)), nil
	}
}

// checkCycles makes sure no output variable depends on itself.
func (o *Outputter) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var visit func(string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("pgwutil: output variable %s depends on itself", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, v := range o.expressions[name].Vars() {
			if _, ok := o.expressions[v]; ok {
				if err := visit(v); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range o.Names() {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the sorted names of the output variables.
func (o *Outputter) Names() []string {
	return sortedKeys(o.outputVariables)
}

// InputVariables returns the result names the output variables depend on.
func (o *Outputter) InputVariables() []string { return o.inputVariables }

// CheckInputs makes sure every input variable is one of the available
// result names.
func (o *Outputter) CheckInputs(available []string) error {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	for _, v := range o.inputVariables {
		if !have[v] {
			return fmt.Errorf("pgwutil: undefined variable name '%s'", v)
		}
	}
	return nil
}

// Evaluate calculates the output variables from the given results.
// An output variable is undefined if any variable it depends on is
// undefined or if its value is not finite.
func (o *Outputter) Evaluate(results map[string]pgwcloud.Maybe) (map[string]pgwcloud.Maybe, error) {
	if err := o.CheckInputs(sortedKeys(results)); err != nil {
		return nil, err
	}
	out := make(map[string]pgwcloud.Maybe, len(o.expressions))
	var eval func(string) (pgwcloud.Maybe, error)
	eval = func(name string) (pgwcloud.Maybe, error) {
		if v, ok := out[name]; ok {
			return v, nil
		}
		e := o.expressions[name]
		params := make(map[string]interface{})
		for _, v := range e.Vars() {
			var m pgwcloud.Maybe
			if _, ok := o.expressions[v]; ok {
				var err error
				if m, err = eval(v); err != nil {
					return pgwcloud.None(), err
				}
			} else {
				m = results[v]
			}
			if !m.Valid {
				out[name] = pgwcloud.None()
				return out[name], nil
			}
			params[v] = m.Value
		}
		r, err := e.Evaluate(params)
		if err != nil {
			return pgwcloud.None(), fmt.Errorf("pgwutil: evaluating %s: %v", name, err)
		}
		f, ok := r.(float64)
		if !ok {
			return pgwcloud.None(), fmt.Errorf("pgwutil: output variable %s is %T, not a number", name, r)
		}
		out[name] = pgwcloud.Some(f)
		return out[name], nil
	}
	for _, name := range o.Names() {
		if _, err := eval(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
