// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the macro expander and context preparation: a flat list of
// top-level statements (spec.md §3 AST), each carrying its source position
// for diagnostics.
package ast

import "github.com/pinsolve/pinsolve/token"

// Node is any node of the tree. Every node knows its own source span so
// diagnostics can point back at the constraint program that produced it.
type Node interface {
	Pos() token.Position
}

// Stmt is a top-level statement: mcu_decl, reserve_decl, pin_decl,
// shared_decl, port_decl or macro_decl (spec.md §3).
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a constraint expression node: identifiers, string literals,
// dot-access, function calls, and unary/binary operators (spec.md §4.2).
type Expr interface {
	Node
	exprNode()
}

// Program is the flat, post-macro-expansion list of top-level statements
// produced by one parse of a constraint program.
type Program struct {
	Stmts []Stmt
}
