package http

import (
	"fmt"
	"strings"
)

type Expression struct {
	Expr string `json:"expression"`
	Pid  int    `json:"pid"`
}

func newExpression(expr string, pid int) *Expression {
	return &Expression{Expr: expr, Pid: pid}
}

func (e *Expression) resolve() (string, []string) {
	cmds := strings.Fields(e.Expr)
	if len(cmds) == 0 {
		return "", nil
	}
	return strings.ToLower(cmds[0]), cmds[1:]
}

func readExpr(addr uint64, size int) string {
	return fmt.Sprintf("read %#x %d", addr, size)
}

func rangesExpr(perms string) string {
	return fmt.Sprintf("ranges %s", perms)
}
