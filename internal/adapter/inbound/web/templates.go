package web

import (
	"fmt"
	"html/template"
)

// templateFuncs are the helpers available to all console templates.
var templateFuncs = template.FuncMap{
	"money": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *v)
	},
	"moneyf": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	// moneyval renders an optional amount for a form input value.
	"moneyval": func(v *float64) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%g", *v)
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}
