package parser

import (
	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/lexer"
)

func pos(line int) ast.Pos {
	return ast.Pos{SrcLine: line}
}

func lowerStatements(nodes []*statementNode) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(nodes))
	for _, n := range nodes {
		s, err := lowerStatement(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func lowerBlock(line int, nodes []*statementNode) (*ast.Block, error) {
	stmts, err := lowerStatements(nodes)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Pos: pos(line), Statements: stmts}, nil
}

func lowerStatement(n *statementNode) (ast.Statement, error) {
	switch {
	case n.Let != nil:
		v, err := lowerOr(n.Let.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Pos: pos(n.Let.Pos.Line), Name: n.Let.Name, Value: v, Declare: true}, nil

	case n.Assign != nil:
		v, err := lowerOr(n.Assign.Value)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Pos: pos(n.Assign.Pos.Line), Name: n.Assign.Name, Value: v}, nil

	case n.Show != nil:
		v, err := lowerOr(n.Show.Value)
		if err != nil {
			return nil, err
		}
		return &ast.ShowStatement{Pos: pos(n.Show.Pos.Line), Value: v}, nil

	case n.If != nil:
		return lowerIf(n.If)

	case n.While != nil:
		cond, err := lowerOr(n.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lowerBlock(n.While.Pos.Line, n.While.Body)
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{Pos: pos(n.While.Pos.Line), Condition: cond, Body: body}, nil

	case n.Repeat != nil:
		count, err := lowerOr(n.Repeat.Count)
		if err != nil {
			return nil, err
		}
		body, err := lowerBlock(n.Repeat.Pos.Line, n.Repeat.Body)
		if err != nil {
			return nil, err
		}
		return &ast.RepeatStatement{Pos: pos(n.Repeat.Pos.Line), Count: count, Body: body}, nil
	}
	return nil, errorAt(n.Pos.Line, "Expected statement")
}

func lowerIf(n *ifNode) (ast.Statement, error) {
	cond, err := lowerOr(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := lowerBlock(n.Pos.Line, n.Then)
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{Pos: pos(n.Pos.Line), Condition: cond, Then: then}
	for _, ei := range n.ElseIfs {
		c, err := lowerOr(ei.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lowerBlock(ei.Pos.Line, ei.Body)
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, &ast.ElseIf{Pos: pos(ei.Pos.Line), Condition: c, Body: body})
	}
	if n.HasElse {
		line := n.Pos.Line
		if len(n.Else) > 0 {
			line = n.Else[0].Pos.Line
		}
		stmt.Else, err = lowerBlock(line, n.Else)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func foldBinary(line int, left ast.Expression, op ast.BinaryOp, right ast.Expression) ast.Expression {
	return &ast.BinaryExpression{Pos: pos(line), Op: op, Left: left, Right: right}
}

func lowerOr(n *orNode) (ast.Expression, error) {
	left, err := lowerAnd(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		right, err := lowerAnd(r)
		if err != nil {
			return nil, err
		}
		left = foldBinary(r.Pos.Line, left, ast.OpOr, right)
	}
	return left, nil
}

func lowerAnd(n *andNode) (ast.Expression, error) {
	left, err := lowerEquality(n.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Right {
		right, err := lowerEquality(r)
		if err != nil {
			return nil, err
		}
		left = foldBinary(r.Pos.Line, left, ast.OpAnd, right)
	}
	return left, nil
}

func lowerEquality(n *equalityNode) (ast.Expression, error) {
	left, err := lowerComparison(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Right {
		right, err := lowerComparison(t.Right)
		if err != nil {
			return nil, err
		}
		op := ast.OpEqual
		if t.IsNot || t.Op == "!=" {
			op = ast.OpNotEqual
		}
		left = foldBinary(t.Pos.Line, left, op, right)
	}
	return left, nil
}

var comparisonOps = map[string]ast.BinaryOp{
	">":  ast.OpGreater,
	">=": ast.OpGreaterEqual,
	"<":  ast.OpLess,
	"<=": ast.OpLessEqual,
}

func lowerComparison(n *comparisonNode) (ast.Expression, error) {
	left, err := lowerAdditive(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Right {
		right, err := lowerAdditive(t.Right)
		if err != nil {
			return nil, err
		}
		left = foldBinary(t.Pos.Line, left, comparisonOps[t.Op], right)
	}
	return left, nil
}

func lowerAdditive(n *additiveNode) (ast.Expression, error) {
	left, err := lowerMultiplicative(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Right {
		right, err := lowerMultiplicative(t.Right)
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if t.Op == "-" {
			op = ast.OpSub
		}
		left = foldBinary(t.Pos.Line, left, op, right)
	}
	return left, nil
}

var multiplicativeOps = map[string]ast.BinaryOp{
	"*": ast.OpMul,
	"/": ast.OpDiv,
	"%": ast.OpMod,
}

func lowerMultiplicative(n *multiplicativeNode) (ast.Expression, error) {
	left, err := lowerUnary(n.Left)
	if err != nil {
		return nil, err
	}
	for _, t := range n.Right {
		right, err := lowerUnary(t.Right)
		if err != nil {
			return nil, err
		}
		left = foldBinary(t.Pos.Line, left, multiplicativeOps[t.Op], right)
	}
	return left, nil
}

func lowerUnary(n *unaryNode) (ast.Expression, error) {
	if n.Primary != nil {
		return lowerPrimary(n.Primary)
	}
	operand, err := lowerUnary(n.Operand)
	if err != nil {
		return nil, err
	}
	op := ast.OpNegate
	if n.Op == "not" {
		op = ast.OpNot
	}
	return &ast.UnaryExpression{Pos: pos(n.Pos.Line), Op: op, Operand: operand}, nil
}

func lowerPrimary(n *primaryNode) (ast.Expression, error) {
	line := n.Pos.Line
	switch {
	case n.Number != nil:
		v, err := parseNumber(*n.Number, line)
		if err != nil {
			return nil, err
		}
		return &ast.NumberLiteral{Pos: pos(line), Value: v}, nil
	case n.String != nil:
		return &ast.StringLiteral{Pos: pos(line), Value: lexer.Unquote(*n.String)}, nil
	case n.Bool != nil:
		return &ast.BooleanLiteral{Pos: pos(line), Value: *n.Bool == "true"}, nil
	case n.Call != nil:
		call := &ast.CallExpression{Pos: pos(line), Name: n.Call.Name}
		for _, a := range n.Call.Args {
			arg, err := lowerOr(a)
			if err != nil {
				return nil, err
			}
			call.Arguments = append(call.Arguments, arg)
		}
		return call, nil
	case n.Ident != nil:
		return &ast.Identifier{Pos: pos(line), Name: *n.Ident}, nil
	case n.Group != nil:
		return lowerOr(n.Group)
	}
	return nil, errorAt(line, "Expected expression")
}
