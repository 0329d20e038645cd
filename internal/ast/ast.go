package ast

import (
	"bytes"
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of a parsed module.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---------------------------------------------------------------- statements

type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// AssignStatement covers plain and augmented assignment. Op is "=" for plain
// assignment, "+=" etc. for augmented. Target is an Identifier, IndexExpression
// or TupleLiteral (destructuring).
type AssignStatement struct {
	Token  token.Token
	Target Expression
	Op     string
	Value  Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Target.String() + " " + as.Op + " " + as.Value.String()
}

type ReturnStatement struct {
	Token token.Token
	Value Expression // may be nil
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.Value == nil {
		return "return"
	}
	return "return " + rs.Value.String()
}

type YieldStatement struct {
	Token token.Token
	Value Expression
}

func (ys *YieldStatement) statementNode()       {}
func (ys *YieldStatement) TokenLiteral() string { return ys.Token.Literal }
func (ys *YieldStatement) String() string       { return "yield " + ys.Value.String() }

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string       { return "break" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string       { return "continue" }

type PassStatement struct {
	Token token.Token
}

func (ps *PassStatement) statementNode()       {}
func (ps *PassStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PassStatement) String() string       { return "pass" }

type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

type IfBranch struct {
	Condition Expression
	Body      *BlockStatement
}

type IfStatement struct {
	Token    token.Token
	Branches []IfBranch // if + elif chain, in order
	Else     *BlockStatement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	for i, br := range is.Branches {
		if i == 0 {
			out.WriteString("if ")
		} else {
			out.WriteString("elif ")
		}
		out.WriteString(br.Condition.String())
		out.WriteString(": ")
		out.WriteString(br.Body.String())
	}
	if is.Else != nil {
		out.WriteString("else: ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

type ForStatement struct {
	Token   token.Token
	Targets []*Identifier // one name, or several for tuple unpacking
	Iter    Expression
	Body    *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	names := make([]string, len(fs.Targets))
	for i, t := range fs.Targets {
		names[i] = t.Value
	}
	return "for " + strings.Join(names, ", ") + " in " + fs.Iter.String() + ": " + fs.Body.String()
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + ": " + ws.Body.String()
}

type DefStatement struct {
	Token       token.Token
	Name        *Identifier
	Params      []*Parameter
	Body        *BlockStatement
	IsGenerator bool // body contains a yield
}

func (ds *DefStatement) statementNode()       {}
func (ds *DefStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DefStatement) String() string {
	params := make([]string, len(ds.Params))
	for i, p := range ds.Params {
		params[i] = p.String()
	}
	return "def " + ds.Name.Value + "(" + strings.Join(params, ", ") + "): " + ds.Body.String()
}

// LoadSymbol is one selected export in a load() statement.
type LoadSymbol struct {
	Name  string
	Alias string // equals Name when no alias given
}

type LoadStatement struct {
	Token    token.Token
	Path     string
	Wildcard bool
	Symbols  []LoadSymbol
}

func (ls *LoadStatement) statementNode()       {}
func (ls *LoadStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LoadStatement) String() string {
	var out bytes.Buffer
	out.WriteString(`load("`)
	out.WriteString(ls.Path)
	out.WriteString(`"`)
	if ls.Wildcard {
		out.WriteString(`, "*"`)
	}
	for _, s := range ls.Symbols {
		if s.Alias != s.Name {
			out.WriteString(", " + s.Alias + `="` + s.Name + `"`)
		} else {
			out.WriteString(`, "` + s.Name + `"`)
		}
	}
	out.WriteString(")")
	return out.String()
}

// --------------------------------------------------------------- expressions

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type IntLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntLiteral) expressionNode()      {}
func (il *IntLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntLiteral) String() string       { return il.Token.Literal }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

type BytesLiteral struct {
	Token token.Token
	Value []byte
}

func (bl *BytesLiteral) expressionNode()      {}
func (bl *BytesLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BytesLiteral) String() string       { return `b"` + string(bl.Value) + `"` }

// FStringPart is either literal text or an embedded expression.
type FStringPart struct {
	Text string
	Expr Expression // nil for literal parts
}

type FStringLiteral struct {
	Token token.Token
	Parts []FStringPart
}

func (fs *FStringLiteral) expressionNode()      {}
func (fs *FStringLiteral) TokenLiteral() string { return fs.Token.Literal }
func (fs *FStringLiteral) String() string {
	var out bytes.Buffer
	out.WriteString(`f"`)
	for _, p := range fs.Parts {
		if p.Expr != nil {
			out.WriteString("{" + p.Expr.String() + "}")
		} else {
			out.WriteString(p.Text)
		}
	}
	out.WriteString(`"`)
	return out.String()
}

type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BoolLiteral) expressionNode()      {}
func (bl *BoolLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BoolLiteral) String() string       { return bl.Token.Literal }

type NoneLiteral struct {
	Token token.Token
}

func (nl *NoneLiteral) expressionNode()      {}
func (nl *NoneLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NoneLiteral) String() string       { return "None" }

type ListLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	elems := make([]string, len(ll.Elements))
	for i, e := range ll.Elements {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

type TupleLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TupleLiteral) String() string {
	elems := make([]string, len(tl.Elements))
	for i, e := range tl.Elements {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

type DictLiteral struct {
	Token  token.Token
	Keys   []Expression
	Values []Expression
}

func (dl *DictLiteral) expressionNode()      {}
func (dl *DictLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DictLiteral) String() string {
	pairs := make([]string, len(dl.Keys))
	for i := range dl.Keys {
		pairs[i] = dl.Keys[i].String() + ": " + dl.Values[i].String()
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type SetLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (sl *SetLiteral) expressionNode()      {}
func (sl *SetLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *SetLiteral) String() string {
	elems := make([]string, len(sl.Elements))
	for i, e := range sl.Elements {
		elems[i] = e.String()
	}
	return "{" + strings.Join(elems, ", ") + "}"
}

type PrefixExpression struct {
	Token    token.Token
	Operator string // "-", "not", "+"
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	if pe.Operator == "not" {
		return "(not " + pe.Right.String() + ")"
	}
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// CondExpression is the ternary `a if cond else b`.
type CondExpression struct {
	Token     token.Token
	Then      Expression
	Condition Expression
	Else      Expression
}

func (ce *CondExpression) expressionNode()      {}
func (ce *CondExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CondExpression) String() string {
	return "(" + ce.Then.String() + " if " + ce.Condition.String() + " else " + ce.Else.String() + ")"
}

type Parameter struct {
	Name       *Identifier
	Default    Expression // nil when required
	IsVariadic bool       // *args
}

func (p *Parameter) String() string {
	s := p.Name.Value
	if p.IsVariadic {
		s = "*" + s
	}
	if p.Default != nil {
		s += "=" + p.Default.String()
	}
	return s
}

type LambdaExpression struct {
	Token  token.Token
	Params []*Parameter
	Body   Expression
}

func (le *LambdaExpression) expressionNode()      {}
func (le *LambdaExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LambdaExpression) String() string {
	params := make([]string, len(le.Params))
	for i, p := range le.Params {
		params[i] = p.String()
	}
	return "lambda " + strings.Join(params, ", ") + ": " + le.Body.String()
}

type Keyword struct {
	Name  string
	Value Expression
}

type CallExpression struct {
	Token    token.Token
	Function Expression
	Args     []Expression
	Kwargs   []Keyword
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := make([]string, 0, len(ce.Args)+len(ce.Kwargs))
	for _, a := range ce.Args {
		args = append(args, a.String())
	}
	for _, k := range ce.Kwargs {
		args = append(args, k.Name+"="+k.Value.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type IndexExpression struct {
	Token token.Token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

type SliceExpression struct {
	Token token.Token
	Left  Expression
	Start Expression // any of these may be nil
	Stop  Expression
	Step  Expression
}

func (se *SliceExpression) expressionNode()      {}
func (se *SliceExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SliceExpression) String() string {
	str := func(e Expression) string {
		if e == nil {
			return ""
		}
		return e.String()
	}
	return "(" + se.Left.String() + "[" + str(se.Start) + ":" + str(se.Stop) + ":" + str(se.Step) + "])"
}

type AttrExpression struct {
	Token token.Token
	Left  Expression
	Name  string
}

func (ae *AttrExpression) expressionNode()      {}
func (ae *AttrExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AttrExpression) String() string       { return ae.Left.String() + "." + ae.Name }

// CompClause is one `for targets in iter [if cond]*` clause of a comprehension.
type CompClause struct {
	Targets []*Identifier
	Iter    Expression
	Ifs     []Expression
}

type ListComprehension struct {
	Token   token.Token
	Elt     Expression
	Clauses []CompClause
}

func (lc *ListComprehension) expressionNode()      {}
func (lc *ListComprehension) TokenLiteral() string { return lc.Token.Literal }
func (lc *ListComprehension) String() string {
	return "[" + lc.Elt.String() + " " + clausesString(lc.Clauses) + "]"
}

type DictComprehension struct {
	Token   token.Token
	Key     Expression
	Value   Expression
	Clauses []CompClause
}

func (dc *DictComprehension) expressionNode()      {}
func (dc *DictComprehension) TokenLiteral() string { return dc.Token.Literal }
func (dc *DictComprehension) String() string {
	return "{" + dc.Key.String() + ": " + dc.Value.String() + " " + clausesString(dc.Clauses) + "}"
}

type SetComprehension struct {
	Token   token.Token
	Elt     Expression
	Clauses []CompClause
}

func (sc *SetComprehension) expressionNode()      {}
func (sc *SetComprehension) TokenLiteral() string { return sc.Token.Literal }
func (sc *SetComprehension) String() string {
	return "{" + sc.Elt.String() + " " + clausesString(sc.Clauses) + "}"
}

func clausesString(clauses []CompClause) string {
	var out bytes.Buffer
	for i, c := range clauses {
		if i > 0 {
			out.WriteString(" ")
		}
		names := make([]string, len(c.Targets))
		for j, t := range c.Targets {
			names[j] = t.Value
		}
		out.WriteString("for " + strings.Join(names, ", ") + " in " + c.Iter.String())
		for _, cond := range c.Ifs {
			out.WriteString(" if " + cond.String())
		}
	}
	return out.String()
}
