package postgres

import (
	"strconv"
	"strings"
)

// conds accumulates parameterized WHERE conditions.
type conds struct {
	parts []string
	args  []any
}

// add appends a condition; each "?" in expr becomes the next $n placeholder.
func (c *conds) add(expr string, args ...any) {
	for _, a := range args {
		c.args = append(c.args, a)
		expr = strings.Replace(expr, "?", "$"+strconv.Itoa(len(c.args)), 1)
	}
	c.parts = append(c.parts, expr)
}

func (c *conds) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause with the full argument list.
func (c *conds) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, c.args...), limit, offset)
	n := len(c.args)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}
