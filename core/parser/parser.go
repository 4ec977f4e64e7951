// Package parser turns ort schema source text into a linked
// core/ortschema.Config. Per spec.md §1/§6, the textual parser is an
// external collaborator the core only needs an interface from
// (parse_config/parse_link); this package implements that interface so the
// CLIs in cmd/ are runnable end to end.
//
// The Parser's advance/expect shape follows the teacher's
// core/parser.Parser (current/previous token, advance(), expect()) adapted
// from SQL-DDL tokens to ort's struct/field/role/enum keywords — see
// DESIGN.md.
package parser

import (
	"fmt"

	"github.com/go-extras/go-kit/ptr"

	"github.com/ortlang/ortc/core/lexer"
	"github.com/ortlang/ortc/core/ortschema"
)

// Parser converts a lexer.Token stream into a rawConfig.
type Parser struct {
	lex      *lexer.Lexer
	current  lexer.Token
	previous lexer.Token
	filename string
}

// NewParser creates a Parser over ort source text.
func NewParser(input, filename string) (*Parser, error) {
	p := &Parser{lex: lexer.New(input, filename), filename: filename}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.previous = p.current
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) pos() ortschema.Pos {
	return ortschema.Pos{Filename: p.filename, Line: p.current.Line, Column: p.current.Column}
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %s", p.filename, p.current.Line, p.current.Column, fmt.Sprintf(format, args...))
}

func (p *Parser) isAtEnd() bool { return p.current.Type == lexer.TokenEOF }

// expectIdent consumes and returns the current token if it is an
// identifier, advancing past it.
func (p *Parser) expectIdent() (string, error) {
	if p.current.Type != lexer.TokenIdent {
		return "", p.errorf("expected identifier, got %s %q", p.current.Type, p.current.Value)
	}
	v := p.current.Value
	if err := p.advance(); err != nil {
		return "", err
	}
	return v, nil
}

// expectKeyword consumes the current token if it is the identifier kw.
func (p *Parser) expectKeyword(kw string) error {
	if p.current.Type != lexer.TokenIdent || p.current.Value != kw {
		return p.errorf("expected %q, got %s %q", kw, p.current.Type, p.current.Value)
	}
	return p.advance()
}

// atKeyword reports (without consuming) whether the current token is the
// identifier kw.
func (p *Parser) atKeyword(kw string) bool {
	return p.current.Type == lexer.TokenIdent && p.current.Value == kw
}

func (p *Parser) expectPunct(v string) error {
	if p.current.Type != lexer.TokenPunct || p.current.Value != v {
		return p.errorf("expected %q, got %s %q", v, p.current.Type, p.current.Value)
	}
	return p.advance()
}

func (p *Parser) atPunct(v string) bool {
	return p.current.Type == lexer.TokenPunct && p.current.Value == v
}

func (p *Parser) expectInt() (int64, error) {
	if p.current.Type != lexer.TokenInt {
		return 0, p.errorf("expected integer, got %s %q", p.current.Type, p.current.Value)
	}
	var n int64
	neg := false
	s := p.current.Value
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Parser) expectString() (string, error) {
	if p.current.Type != lexer.TokenString {
		return "", p.errorf("expected string, got %s %q", p.current.Type, p.current.Value)
	}
	v := p.current.Value
	if err := p.advance(); err != nil {
		return "", err
	}
	return v, nil
}

// Parse reads the entire token stream and returns the linked
// *ortschema.Config.
func Parse(input, filename string) (*ortschema.Config, error) {
	p, err := NewParser(input, filename)
	if err != nil {
		return nil, err
	}
	raw, err := p.parseConfig()
	if err != nil {
		return nil, err
	}
	return link(raw)
}

func (p *Parser) parseConfig() (*rawConfig, error) {
	cfg := &rawConfig{}
	for !p.isAtEnd() {
		switch {
		case p.atKeyword("role"):
			r, err := p.parseRole()
			if err != nil {
				return nil, err
			}
			cfg.roles = append(cfg.roles, r)
		case p.atKeyword("enum"):
			e, err := p.parseEnum()
			if err != nil {
				return nil, err
			}
			cfg.enums = append(cfg.enums, e)
		case p.atKeyword("bitfield"):
			b, err := p.parseBitfield()
			if err != nil {
				return nil, err
			}
			cfg.bitfields = append(cfg.bitfields, b)
		case p.atKeyword("struct"):
			s, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			cfg.structs = append(cfg.structs, s)
		default:
			return nil, p.errorf("expected role, enum, bitfield, or struct declaration, got %q", p.current.Value)
		}
	}
	return cfg, nil
}

func (p *Parser) parseRole() (*rawRole, error) {
	pos := p.pos()
	if err := p.expectKeyword("role"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	r := &rawRole{name: name, pos: pos}
	for p.atKeyword("parent") || p.atKeyword("doc") {
		if p.atKeyword("parent") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if r.parent, err = p.expectIdent(); err != nil {
				return nil, err
			}
		} else {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if r.doc, err = p.expectString(); err != nil {
				return nil, err
			}
		}
	}
	return r, p.expectPunct(";")
}

func (p *Parser) parseEnum() (*rawEnum, error) {
	pos := p.pos()
	if err := p.expectKeyword("enum"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	e := &rawEnum{name: name, pos: pos}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		itemPos := p.pos()
		itemName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		val, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		item := &rawEnumItem{name: itemName, value: val, pos: itemPos}
		if p.atKeyword("doc") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if item.doc, err = p.expectString(); err != nil {
				return nil, err
			}
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		e.items = append(e.items, item)
	}
	return e, p.expectPunct("}")
}

func (p *Parser) parseBitfield() (*rawBitfield, error) {
	pos := p.pos()
	if err := p.expectKeyword("bitfield"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	b := &rawBitfield{name: name, pos: pos}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		itemPos := p.pos()
		itemName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		val, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		item := &rawBitIdx{name: itemName, index: val, pos: itemPos}
		if p.atKeyword("doc") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if item.doc, err = p.expectString(); err != nil {
				return nil, err
			}
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		b.items = append(b.items, item)
	}
	return b, p.expectPunct("}")
}

func (p *Parser) parseRolemapList() ([]string, error) {
	var out []string
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	out = append(out, name)
	for p.atPunct(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

func (p *Parser) parseStruct() (*rawStruct, error) {
	pos := p.pos()
	if err := p.expectKeyword("struct"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	s := &rawStruct{name: name, pos: pos}
	if p.atKeyword("doc") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if s.doc, err = p.expectString(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		switch {
		case p.atKeyword("field"):
			f, err := p.parseField()
			if err != nil {
				return nil, err
			}
			s.fields = append(s.fields, f)
		case p.atKeyword("search"):
			sr, err := p.parseSearch()
			if err != nil {
				return nil, err
			}
			s.search = append(s.search, sr)
		case p.atKeyword("update"):
			u, err := p.parseUpdateOrDelete(false)
			if err != nil {
				return nil, err
			}
			s.update = append(s.update, u)
		case p.atKeyword("delete"):
			u, err := p.parseUpdateOrDelete(true)
			if err != nil {
				return nil, err
			}
			s.update = append(s.update, u)
		case p.atKeyword("insert"):
			ins, err := p.parseInsert()
			if err != nil {
				return nil, err
			}
			s.insert = ins
		case p.atKeyword("unique"):
			un, err := p.parseUnique()
			if err != nil {
				return nil, err
			}
			s.unique = append(s.unique, un)
		default:
			return nil, p.errorf("expected field, search, update, delete, insert, or unique, got %q", p.current.Value)
		}
	}
	return s, p.expectPunct("}")
}

func (p *Parser) parseField() (*rawField, error) {
	pos := p.pos()
	if err := p.expectKeyword("field"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	typeWord, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	f := &rawField{name: name, typeWord: typeWord, pos: pos}
	if typeWord == "enum" || typeWord == "bitfield" {
		if f.typeArg, err = p.expectIdent(); err != nil {
			return nil, err
		}
	} else if typeWord == "struct" {
		target, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("."); err != nil {
			return nil, err
		}
		targetField, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		f.refStruct, f.refField = target, targetField
	}

	for !p.atPunct(";") {
		switch {
		case p.atKeyword("rowid"):
			f.rowid = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.atKeyword("unique"):
			f.unique = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.atKeyword("null"):
			f.null = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.atKeyword("noexport"):
			f.noexport = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.atKeyword("default"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			f.hasDefault = true
			if p.current.Type == lexer.TokenString {
				if f.defaultVal, err = p.expectString(); err != nil {
					return nil, err
				}
			} else {
				v, err := p.expectInt()
				if err != nil {
					return nil, err
				}
				f.defaultVal = fmt.Sprintf("%d", v)
			}
		case p.atKeyword("ref"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if f.refStruct, err = p.expectIdent(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("."); err != nil {
				return nil, err
			}
			if f.refField, err = p.expectIdent(); err != nil {
				return nil, err
			}
			if p.atKeyword("ondelete") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				action, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				f.onDelete = ptr.To(action)
			}
			if p.atKeyword("onupdate") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				action, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				f.onUpdate = ptr.To(action)
			}
		case p.atKeyword("ondelete"):
			// Struct-typed fields carry target.field inline (no "ref"
			// keyword), so their on-delete/on-update actions are
			// standalone attributes instead of nested under "ref".
			if err := p.advance(); err != nil {
				return nil, err
			}
			action, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			f.onDelete = ptr.To(action)
		case p.atKeyword("onupdate"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			action, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			f.onUpdate = ptr.To(action)
		case p.atKeyword("rolemap"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if f.rolemap, err = p.parseRolemapList(); err != nil {
				return nil, err
			}
		case p.atKeyword("doc"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if f.doc, err = p.expectString(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("unexpected field attribute %q", p.current.Value)
		}
	}
	return f, p.expectPunct(";")
}

func (p *Parser) parsePathIdent() ([]string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	path := []string{first}
	for p.atPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		path = append(path, next)
	}
	return path, nil
}

func (p *Parser) parseSearch() (*rawSearch, error) {
	pos := p.pos()
	if err := p.expectKeyword("search"); err != nil {
		return nil, err
	}
	kind, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	s := &rawSearch{kind: kind, pos: pos}
	if p.current.Type == lexer.TokenIdent && !p.atKeyword("by") && !p.atPunct("{") {
		// an optional name precedes the body, distinguished from "by" and "{"
		if s.name, err = p.expectIdent(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		switch {
		case p.atKeyword("by"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			path, err := p.parsePathIdent()
			if err != nil {
				return nil, err
			}
			op, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			s.terms = append(s.terms, rawSentTerm{path: path, op: op})
		case p.atKeyword("distinct"):
			s.distinct = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		case p.atKeyword("rolemap"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if s.rolemap, err = p.parseRolemapList(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		case p.atKeyword("doc"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if s.doc, err = p.expectString(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("unexpected search clause %q", p.current.Value)
		}
	}
	return s, p.expectPunct("}")
}

func (p *Parser) parseUpdateOrDelete(isDelete bool) (*rawUpdate, error) {
	pos := p.pos()
	kw := "update"
	if isDelete {
		kw = "delete"
	}
	if err := p.expectKeyword(kw); err != nil {
		return nil, err
	}
	u := &rawUpdate{isDelete: isDelete, pos: pos}
	if p.current.Type == lexer.TokenIdent && !p.atKeyword("set") && !p.atKeyword("by") && !p.atPunct("{") {
		var err error
		if u.name, err = p.expectIdent(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.atPunct("}") {
		switch {
		case p.atKeyword("set"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			mod, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			u.mods = append(u.mods, rawModTerm{field: field, mod: mod})
		case p.atKeyword("by"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			op, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			u.conds = append(u.conds, rawCondTerm{field: field, op: op})
		case p.atKeyword("all"):
			u.all = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		case p.atKeyword("rolemap"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			var err error
			if u.rolemap, err = p.parseRolemapList(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		case p.atKeyword("doc"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			var err error
			if u.doc, err = p.expectString(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("unexpected update clause %q", p.current.Value)
		}
	}
	return u, p.expectPunct("}")
}

func (p *Parser) parseInsert() (*rawInsert, error) {
	pos := p.pos()
	if err := p.expectKeyword("insert"); err != nil {
		return nil, err
	}
	ins := &rawInsert{pos: pos}
	if p.atKeyword("rolemap") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var err error
		if ins.rolemap, err = p.parseRolemapList(); err != nil {
			return nil, err
		}
	}
	if p.atKeyword("doc") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var err error
		if ins.doc, err = p.expectString(); err != nil {
			return nil, err
		}
	}
	return ins, p.expectPunct(";")
}

func (p *Parser) parseUnique() (*rawUnique, error) {
	pos := p.pos()
	if err := p.expectKeyword("unique"); err != nil {
		return nil, err
	}
	un := &rawUnique{pos: pos}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	un.fields = append(un.fields, name)
	for p.atPunct(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		un.fields = append(un.fields, next)
	}
	return un, p.expectPunct(";")
}
