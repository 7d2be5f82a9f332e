package ast

// Inspect traverses the tree rooted at node in depth-first order, calling f
// for each node. If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *Block:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *Assignment:
		Inspect(n.Value, f)
	case *ShowStatement:
		Inspect(n.Value, f)
	case *IfStatement:
		Inspect(n.Condition, f)
		Inspect(n.Then, f)
		for _, ei := range n.ElseIfs {
			Inspect(ei, f)
		}
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *ElseIf:
		Inspect(n.Condition, f)
		Inspect(n.Body, f)
	case *WhileStatement:
		Inspect(n.Condition, f)
		Inspect(n.Body, f)
	case *RepeatStatement:
		Inspect(n.Count, f)
		Inspect(n.Body, f)
	case *BinaryExpression:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryExpression:
		Inspect(n.Operand, f)
	case *CallExpression:
		for _, a := range n.Arguments {
			Inspect(a, f)
		}
	}
}
