package ast

import "github.com/pinsolve/pinsolve/token"

type (
	// McuDecl is `mcu: pattern (| pattern)*`. It is ignored by the solver; it
	// exists only so the UI collaborator can filter which MCUs a constraint
	// program applies to.
	McuDecl struct {
		Patterns []string
		At       token.Position
	}

	// ReserveDecl withdraws pins from all assignment.
	ReserveDecl struct {
		Pins []string
		At   token.Position
	}

	// PinDecl fixes a pin to a raw (already-concrete) signal name, e.g.
	// `pin PA4 = DAC1_OUT1`.
	PinDecl struct {
		Pin    string
		Signal string
		At     token.Position
	}

	// SharedDecl lists peripheral-instance patterns that may be bound to more
	// than one port simultaneously.
	SharedDecl struct {
		Patterns []*SignalPattern
		At       token.Position
	}

	// PortDecl declares a logical port: its channels, its named
	// configurations, and an optional display color (UI metadata, otherwise
	// inert to the solver).
	PortDecl struct {
		Name    string
		Color   string
		Channel []*ChannelDecl
		Config  []*ConfigDecl
		At      token.Position
	}

	// ChannelDecl declares one logical wire inside a port, optionally
	// restricted to a fixed set of allowed pins (`channel NAME @ pin, pin`).
	ChannelDecl struct {
		Name        string
		AllowedPins []string
		At          token.Position
	}

	// ConfigDecl is one named, alternative realization of a port. Its body is
	// a sequence of mappings, requires and macro calls.
	ConfigDecl struct {
		Name  string
		Items []ConfigItem
		At    token.Position
	}

	// MacroDecl declares a reusable config-body fragment.
	MacroDecl struct {
		Name   string
		Params []string
		Body   []ConfigItem
		At     token.Position
	}
)

// ConfigItem is one entry of a config or macro body: a Mapping, a
// RequireStmt, or a MacroCall (before expansion replaces it).
type ConfigItem interface {
	Node
	configItemNode()
}

type (
	// Mapping is `channel = signal_expr (& signal_expr)*`. Parts holds one
	// SignalExpr per `&`-separated alternative, so len(Parts) > 1 marks a
	// multi-pin channel (spec.md §3, §8 E5).
	Mapping struct {
		Channel string
		Parts   []SignalExpr
		At      token.Position
	}

	// RequireStmt is a boolean constraint expression guarding a config.
	RequireStmt struct {
		Expr Expr
		At   token.Position
	}

	// MacroCall invokes a user or stdlib macro by name with positional
	// argument expressions.
	MacroCall struct {
		Name string
		Args []Expr
		At   token.Position
	}
)

// SignalExpr is `pattern (| pattern)*`: a list of alternative signal
// patterns, any of which may satisfy the mapping.
type SignalExpr []*SignalPattern

func (n *McuDecl) Pos() token.Position     { return n.At }
func (n *ReserveDecl) Pos() token.Position { return n.At }
func (n *PinDecl) Pos() token.Position     { return n.At }
func (n *SharedDecl) Pos() token.Position  { return n.At }
func (n *PortDecl) Pos() token.Position    { return n.At }
func (n *ChannelDecl) Pos() token.Position { return n.At }
func (n *ConfigDecl) Pos() token.Position  { return n.At }
func (n *MacroDecl) Pos() token.Position   { return n.At }
func (n *Mapping) Pos() token.Position     { return n.At }
func (n *RequireStmt) Pos() token.Position { return n.At }
func (n *MacroCall) Pos() token.Position   { return n.At }

func (*McuDecl) stmtNode()     {}
func (*ReserveDecl) stmtNode() {}
func (*PinDecl) stmtNode()     {}
func (*SharedDecl) stmtNode()  {}
func (*PortDecl) stmtNode()    {}
func (*MacroDecl) stmtNode()   {}

func (*Mapping) configItemNode()     {}
func (*RequireStmt) configItemNode() {}
func (*MacroCall) configItemNode()   {}
