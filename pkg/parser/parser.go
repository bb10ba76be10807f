// Package parser implements a hand-written recursive-descent parser with
// precedence-climbing expression parsing, producing a pkg/ast.Program.
package parser

import (
	"fmt"
	"strconv"

	"github.com/adrianmoss/subcc/pkg/ast"
	"github.com/adrianmoss/subcc/pkg/lexer"
)

// Precedence levels, lowest to highest, matching the grammar table.
const (
	precNone       = 0
	precAssign     = 1  // =, +=, -=, ... (right-assoc)
	precTernary    = 2  // ?: (right-assoc)
	precOr         = 3  // ||
	precAnd        = 4  // &&
	precBitOr      = 5  // |
	precBitXor     = 6  // ^
	precBitAnd     = 7  // &
	precEquality   = 8  // == !=
	precRelational = 9  // < <= > >=
	precShift      = 10 // << >>
	precAdditive   = 11 // + -
	precMulti      = 12 // * / %
)

var assignOps = map[lexer.TokenType]ast.AssignOp{
	lexer.TokenAssign:        ast.AssignPlain,
	lexer.TokenPlusAssign:    ast.AssignAdd,
	lexer.TokenMinusAssign:   ast.AssignSubtract,
	lexer.TokenStarAssign:    ast.AssignMultiply,
	lexer.TokenSlashAssign:   ast.AssignDivide,
	lexer.TokenPercentAssign: ast.AssignRemainder,
	lexer.TokenAndAssign:     ast.AssignBitwiseAnd,
	lexer.TokenOrAssign:      ast.AssignBitwiseOr,
	lexer.TokenXorAssign:     ast.AssignBitwiseXor,
	lexer.TokenShlAssign:     ast.AssignShiftLeft,
	lexer.TokenShrAssign:     ast.AssignShiftRight,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenStar:      ast.OpMultiply,
	lexer.TokenSlash:     ast.OpDivide,
	lexer.TokenPercent:   ast.OpRemainder,
	lexer.TokenPlus:      ast.OpAdd,
	lexer.TokenMinus:     ast.OpSubtract,
	lexer.TokenShl:       ast.OpShiftLeft,
	lexer.TokenShr:       ast.OpShiftRight,
	lexer.TokenLt:        ast.OpLess,
	lexer.TokenLe:        ast.OpLessOrEqual,
	lexer.TokenGt:        ast.OpGreater,
	lexer.TokenGe:        ast.OpGreaterOrEqual,
	lexer.TokenEq:        ast.OpEqual,
	lexer.TokenNe:        ast.OpNotEqual,
	lexer.TokenAmpersand: ast.OpBitwiseAnd,
	lexer.TokenCaret:     ast.OpBitwiseXor,
	lexer.TokenPipe:      ast.OpBitwiseOr,
	lexer.TokenAnd:       ast.OpLogicalAnd,
	lexer.TokenOr:        ast.OpLogicalOr,
}

func precedenceOf(t lexer.TokenType) int {
	if _, ok := assignOps[t]; ok {
		return precAssign
	}
	if t == lexer.TokenQuestion {
		return precTernary
	}
	switch t {
	case lexer.TokenOr:
		return precOr
	case lexer.TokenAnd:
		return precAnd
	case lexer.TokenPipe:
		return precBitOr
	case lexer.TokenCaret:
		return precBitXor
	case lexer.TokenAmpersand:
		return precBitAnd
	case lexer.TokenEq, lexer.TokenNe:
		return precEquality
	case lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe:
		return precRelational
	case lexer.TokenShl, lexer.TokenShr:
		return precShift
	case lexer.TokenPlus, lexer.TokenMinus:
		return precAdditive
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return precMulti
	default:
		return precNone
	}
}

// ParseError reports an unexpected token, unexpected EOF, or invalid type
// specifier. The first error halts parsing.
type ParseError struct {
	Msg  string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// Parser parses a token stream (obtained from pkg/lexer) into a pkg/ast.Program.
type Parser struct {
	toks []lexer.Token
	pos  int
	errs []*ParseError
}

// New creates a Parser over an already-tokenized input.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// Errors returns every error recorded while parsing. Parsing halts at the
// first one, so this never has more than one entry.
func (p *Parser) Errors() []*ParseError {
	return p.errs
}

func (p *Parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos+1 < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) addError(msg string) {
	if p.failed() {
		return
	}
	p.errs = append(p.errs, &ParseError{Msg: msg, Line: p.cur().Line, Col: p.cur().Column})
}

func (p *Parser) failed() bool {
	return len(p.errs) > 0
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.cur().Type == t {
		return p.advance(), true
	}
	if p.cur().Type == lexer.TokenEOF {
		p.addError(fmt.Sprintf("expected %s, got unexpected EOF", t))
	} else {
		p.addError(fmt.Sprintf("expected %s, got %s", t, p.cur().Type))
	}
	return lexer.Token{}, false
}

func isTypeSpecifier(t lexer.TokenType) bool {
	return t == lexer.TokenInt_ || t == lexer.TokenLong
}

func isStorageClass(t lexer.TokenType) bool {
	return t == lexer.TokenStatic || t == lexer.TokenExtern
}

func isDeclarationStart(t lexer.TokenType) bool {
	return isTypeSpecifier(t) || isStorageClass(t) || t == lexer.TokenVoid
}

// ParseProgram parses an entire translation unit.
func ParseProgram(toks []lexer.Token) (*ast.Program, []*ParseError) {
	p := New(toks)
	prog := &ast.Program{}
	for p.cur().Type != lexer.TokenEOF && !p.failed() {
		d := p.parseTopLevelDecl()
		if p.failed() {
			break
		}
		prog.Decls = append(prog.Decls, d)
	}
	return prog, p.errs
}

// specifierSet accumulates the type-specifier and storage-class keywords
// seen in a declaration prefix.
type specifierSet struct {
	sawInt  bool
	sawLong int
	storage ast.StorageClass
	isVoid  bool
}

func (p *Parser) parseSpecifiers() specifierSet {
	var s specifierSet
	for {
		switch p.cur().Type {
		case lexer.TokenInt_:
			s.sawInt = true
			p.advance()
		case lexer.TokenLong:
			s.sawLong++
			p.advance()
		case lexer.TokenVoid:
			s.isVoid = true
			p.advance()
		case lexer.TokenStatic:
			if s.storage != ast.StorageNone {
				p.addError("multiple storage classes in declaration")
				return s
			}
			s.storage = ast.StorageStatic
			p.advance()
		case lexer.TokenExtern:
			if s.storage != ast.StorageNone {
				p.addError("multiple storage classes in declaration")
				return s
			}
			s.storage = ast.StorageExtern
			p.advance()
		default:
			return s
		}
	}
}

// normalizeType implements the spec's type-specifier normalization:
// {int} -> Int; {long} or {int,long} -> Long. void is reported separately
// by the caller, since it is only valid as a function return type.
func (s specifierSet) normalizeType() (ast.Type, bool) {
	if s.isVoid {
		return nil, false
	}
	if s.sawLong > 1 {
		return nil, false
	}
	if s.sawLong == 1 {
		return ast.LongType{}, true
	}
	if s.sawInt {
		return ast.IntType{}, true
	}
	return nil, false
}

func (p *Parser) parseTopLevelDecl() ast.Decl {
	specs := p.parseSpecifiers()
	if p.failed() {
		return nil
	}
	name, ok := p.expect(lexer.TokenIdent)
	if !ok {
		return nil
	}
	if p.cur().Type == lexer.TokenLParen {
		return p.parseFunctionDecl(name.Literal, specs)
	}
	return p.parseVariableDeclRest(name.Literal, specs)
}

func (p *Parser) parseFunctionDecl(name string, specs specifierSet) *ast.FunDecl {
	retTy, ok := specs.normalizeType()
	if !ok && !specs.isVoid {
		p.addError("invalid type specifier for function return type")
		return nil
	}
	if specs.isVoid {
		retTy = ast.IntType{} // placeholder; void-returning functions never yield a value the checker reads
	}

	if _, ok := p.expect(lexer.TokenLParen); !ok {
		return nil
	}

	var params []ast.Param
	var paramTypes []ast.Type
	if p.cur().Type == lexer.TokenVoid && p.peek().Type == lexer.TokenRParen {
		p.advance()
	} else if p.cur().Type != lexer.TokenRParen {
		for {
			pspecs := p.parseSpecifiers()
			pty, ok := pspecs.normalizeType()
			if !ok {
				p.addError("invalid type specifier for parameter")
				return nil
			}
			if pspecs.storage != ast.StorageNone {
				p.addError("storage class not allowed on parameter")
				return nil
			}
			pname, ok := p.expect(lexer.TokenIdent)
			if !ok {
				return nil
			}
			params = append(params, ast.Param{Name: pname.Literal, Ty: pty})
			paramTypes = append(paramTypes, pty)
			if p.cur().Type == lexer.TokenComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, ok := p.expect(lexer.TokenRParen); !ok {
		return nil
	}

	fnTy := ast.FunctionType{Return: retTy, Params: paramTypes}

	if p.cur().Type == lexer.TokenSemicolon {
		p.advance()
		return &ast.FunDecl{Name: name, Params: params, Ty: fnTy, Storage: specs.storage}
	}

	body := p.parseBlock()
	if p.failed() {
		return nil
	}
	return &ast.FunDecl{Name: name, Params: params, Body: body, Ty: fnTy, Storage: specs.storage}
}

func (p *Parser) parseVariableDeclRest(name string, specs specifierSet) *ast.VarDecl {
	ty, ok := specs.normalizeType()
	if !ok {
		p.addError("invalid type specifier for variable declaration")
		return nil
	}
	var init ast.Expr
	if p.cur().Type == lexer.TokenAssign {
		p.advance()
		init = p.parseExpression(precAssign)
		if p.failed() {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokenSemicolon); !ok {
		return nil
	}
	return &ast.VarDecl{Name: name, Init: init, Ty: ty, Storage: specs.storage}
}

func (p *Parser) parseBlock() *ast.Block {
	if _, ok := p.expect(lexer.TokenLBrace); !ok {
		return nil
	}
	b := &ast.Block{}
	for p.cur().Type != lexer.TokenRBrace && p.cur().Type != lexer.TokenEOF && !p.failed() {
		b.Items = append(b.Items, p.parseBlockItem())
	}
	if p.failed() {
		return nil
	}
	if _, ok := p.expect(lexer.TokenRBrace); !ok {
		return nil
	}
	return b
}

func (p *Parser) parseBlockItem() ast.BlockItem {
	if isDeclarationStart(p.cur().Type) {
		specs := p.parseSpecifiers()
		if p.failed() {
			return nil
		}
		name, ok := p.expect(lexer.TokenIdent)
		if !ok {
			return nil
		}
		if p.cur().Type == lexer.TokenLParen {
			if specs.storage == ast.StorageStatic {
				p.addError("block-scope function declaration may not be static")
				return nil
			}
			fd := p.parseFunctionDecl(name.Literal, specs)
			if fd != nil && fd.Body != nil {
				p.addError("block-scope function declaration may not have a body")
				return nil
			}
			return fd
		}
		return p.parseVariableDeclRest(name.Literal, specs)
	}
	if item, ok := p.parseStatement().(ast.BlockItem); ok {
		return item
	}
	return nil
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Type {
	case lexer.TokenReturn:
		p.advance()
		var e ast.Expr
		if p.cur().Type != lexer.TokenSemicolon {
			e = p.parseExpression(precAssign)
		}
		p.expect(lexer.TokenSemicolon)
		return &ast.Return{Expr: e}
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenGoto:
		p.advance()
		name, ok := p.expect(lexer.TokenIdent)
		if !ok {
			return nil
		}
		p.expect(lexer.TokenSemicolon)
		return &ast.Goto{Label: name.Literal}
	case lexer.TokenLBrace:
		b := p.parseBlock()
		if b == nil {
			return nil
		}
		return &ast.Compound{Body: b}
	case lexer.TokenBreak:
		p.advance()
		p.expect(lexer.TokenSemicolon)
		return &ast.Break{}
	case lexer.TokenContinue:
		p.advance()
		p.expect(lexer.TokenSemicolon)
		return &ast.Continue{}
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenCase:
		p.advance()
		e := p.parseExpression(precAssign)
		p.expect(lexer.TokenColon)
		body := p.parseStatement()
		return &ast.Case{Expr: e, Body: body}
	case lexer.TokenDefault:
		p.advance()
		p.expect(lexer.TokenColon)
		body := p.parseStatement()
		return &ast.Default{Body: body}
	case lexer.TokenSemicolon:
		p.advance()
		return &ast.Null{}
	case lexer.TokenIdent:
		if p.peek().Type == lexer.TokenColon {
			label := p.advance().Literal
			p.advance() // ':'
			stmt := p.parseStatement()
			return &ast.Labeled{Label: label, Stmt: stmt}
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() ast.Stmt {
	e := p.parseExpression(precAssign)
	p.expect(lexer.TokenSemicolon)
	return &ast.ExprStmt{Expr: e}
}

func (p *Parser) parseIf() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precAssign)
	p.expect(lexer.TokenRParen)
	then := p.parseStatement()
	var els ast.Stmt
	if p.cur().Type == lexer.TokenElse {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.If{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precAssign)
	p.expect(lexer.TokenRParen)
	body := p.parseStatement()
	return &ast.While{Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() ast.Stmt {
	p.advance()
	body := p.parseStatement()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	cond := p.parseExpression(precAssign)
	p.expect(lexer.TokenRParen)
	p.expect(lexer.TokenSemicolon)
	return &ast.DoWhile{Body: body, Cond: cond}
}

func (p *Parser) parseFor() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen)

	var init ast.ForInit
	if p.cur().Type == lexer.TokenSemicolon {
		p.advance()
	} else if isDeclarationStart(p.cur().Type) {
		specs := p.parseSpecifiers()
		name, ok := p.expect(lexer.TokenIdent)
		if !ok {
			return nil
		}
		init.Decl = p.parseVariableDeclRest(name.Literal, specs)
	} else {
		init.Expr = p.parseExpression(precAssign)
		p.expect(lexer.TokenSemicolon)
	}

	var cond ast.Expr
	if p.cur().Type != lexer.TokenSemicolon {
		cond = p.parseExpression(precAssign)
	}
	p.expect(lexer.TokenSemicolon)

	var post ast.Expr
	if p.cur().Type != lexer.TokenRParen {
		post = p.parseExpression(precAssign)
	}
	p.expect(lexer.TokenRParen)

	body := p.parseStatement()
	return &ast.For{Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseSwitch() ast.Stmt {
	p.advance()
	p.expect(lexer.TokenLParen)
	e := p.parseExpression(precAssign)
	p.expect(lexer.TokenRParen)
	body := p.parseStatement()
	return &ast.Switch{Expr: e, Body: body}
}

// parseExpression implements precedence climbing over the table in
// precedenceOf. minPrec is the lowest precedence this call will consume.
func (p *Parser) parseExpression(minPrec int) ast.Expr {
	left := p.parseFactor()
	if p.failed() {
		return left
	}
	for {
		tok := p.cur().Type
		prec := precedenceOf(tok)
		if prec == precNone || prec < minPrec {
			return left
		}
		if aop, ok := assignOps[tok]; ok {
			p.advance()
			right := p.parseExpression(prec) // right-assoc
			left = &ast.Assignment{Op: aop, Lhs: left, Rhs: right}
			continue
		}
		if tok == lexer.TokenQuestion {
			p.advance()
			thenE := p.parseExpression(precAssign)
			p.expect(lexer.TokenColon)
			elseE := p.parseExpression(prec) // right-assoc
			left = &ast.Conditional{Cond: left, Then: thenE, Else: elseE}
			continue
		}
		bop := binaryOps[tok]
		p.advance()
		right := p.parseExpression(prec + 1) // left-assoc
		left = &ast.Binary{Op: bop, Lhs: left, Rhs: right}
	}
}

// parseFactor parses a unary-prefix chain, a cast, or a postfix expression.
func (p *Parser) parseFactor() ast.Expr {
	switch p.cur().Type {
	case lexer.TokenTilde:
		p.advance()
		return &ast.Unary{Op: ast.OpComplement, Inner: p.parseFactor()}
	case lexer.TokenMinus:
		p.advance()
		return &ast.Unary{Op: ast.OpNegate, Inner: p.parseFactor()}
	case lexer.TokenNot:
		p.advance()
		return &ast.Unary{Op: ast.OpNot, Inner: p.parseFactor()}
	case lexer.TokenIncrement:
		p.advance()
		return &ast.Unary{Op: ast.OpPreIncrement, Inner: p.parseFactor()}
	case lexer.TokenDecrement:
		p.advance()
		return &ast.Unary{Op: ast.OpPreDecrement, Inner: p.parseFactor()}
	case lexer.TokenLParen:
		if isTypeSpecifier(p.peek().Type) {
			p.advance() // '('
			specs := p.parseSpecifiers()
			ty, ok := specs.normalizeType()
			if !ok {
				p.addError("invalid type specifier in cast")
				return nil
			}
			p.expect(lexer.TokenRParen)
			inner := p.parseFactor()
			return &ast.Cast{Target: ty, Inner: inner}
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur().Type {
		case lexer.TokenIncrement:
			p.advance()
			e = &ast.Unary{Op: ast.OpPostIncrement, Inner: e}
		case lexer.TokenDecrement:
			p.advance()
			e = &ast.Unary{Op: ast.OpPostDecrement, Inner: e}
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		return p.makeConstant(tok)
	case lexer.TokenIdent:
		p.advance()
		if p.cur().Type == lexer.TokenLParen {
			p.advance()
			var args []ast.Expr
			if p.cur().Type != lexer.TokenRParen {
				for {
					args = append(args, p.parseExpression(precAssign))
					if p.cur().Type == lexer.TokenComma {
						p.advance()
						continue
					}
					break
				}
			}
			p.expect(lexer.TokenRParen)
			return &ast.FunctionCall{FnName: tok.Literal, Args: args}
		}
		return &ast.Variable{Name: tok.Literal}
	case lexer.TokenLParen:
		p.advance()
		e := p.parseExpression(precAssign)
		p.expect(lexer.TokenRParen)
		return e
	default:
		if tok.Type == lexer.TokenEOF {
			p.addError("unexpected EOF while parsing expression")
		} else {
			p.addError(fmt.Sprintf("unexpected token %s while parsing expression", tok.Type))
		}
		return nil
	}
}

func (p *Parser) makeConstant(tok lexer.Token) ast.Expr {
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError("invalid integer constant " + tok.Literal)
		return nil
	}
	if tok.Width == lexer.WidthLong || v > int64(^uint32(0)>>1) {
		// Unsuffixed literals too large for int are promoted to long,
		// matching the book's constant-folding rule.
		return &ast.Constant{IsLong: true, LongValue: v}
	}
	return &ast.Constant{IsLong: false, IntValue: int32(v)}
}
