package parser

import (
	"fmt"

	"github.com/ortlang/ortc/core/diag"
	"github.com/ortlang/ortc/core/ortschema"
)

// link resolves a rawConfig's name references into a fully linked
// *ortschema.Config, per spec.md §6's parse_link contract: declarations are
// installed in a first pass so forward references (a struct referencing one
// declared later in the file) resolve, then every name reference is
// resolved against that symbol table in a second pass.
func link(raw *rawConfig) (*ortschema.Config, error) {
	var q diag.Queue
	cfg := ortschema.NewConfig()

	roleByName := make(map[string]*ortschema.Role, len(raw.roles))
	for _, r := range raw.roles {
		if _, exists := roleByName[r.name]; exists {
			q.Errorf("role", r.pos, "duplicate role %q", r.name)
			continue
		}
		// Parent is resolved in a second pass below, once every role name is
		// known; a nil parent here is patched to cfg.RootRole by AddRole.
		role := cfg.AddRole(r.name, nil)
		role.Doc = r.doc
		role.Pos = r.pos
		roleByName[r.name] = role
	}
	for _, r := range raw.roles {
		if r.parent == "" {
			continue
		}
		child, ok := roleByName[r.name]
		if !ok {
			continue
		}
		parent, ok := roleByName[r.parent]
		if !ok {
			q.Errorf("role", r.pos, "role %q has undeclared parent %q", r.name, r.parent)
			continue
		}
		reparentRole(cfg, child, parent)
	}

	enumByName := make(map[string]*ortschema.Enum, len(raw.enums))
	for _, e := range raw.enums {
		if _, exists := enumByName[e.name]; exists {
			q.Errorf("enum", e.pos, "duplicate enum %q", e.name)
			continue
		}
		enum := cfg.AddEnum(e.name)
		enum.Doc = e.doc
		enum.Pos = e.pos
		for _, it := range e.items {
			item := enum.AddItem(it.name, it.value)
			item.Doc = it.doc
			item.Pos = it.pos
		}
		enumByName[e.name] = enum
	}

	bitfieldByName := make(map[string]*ortschema.Bitfield, len(raw.bitfields))
	for _, b := range raw.bitfields {
		if _, exists := bitfieldByName[b.name]; exists {
			q.Errorf("bitfield", b.pos, "duplicate bitfield %q", b.name)
			continue
		}
		bf := cfg.AddBitfield(b.name)
		bf.Doc = b.doc
		bf.Pos = b.pos
		for _, it := range b.items {
			bit := bf.AddBit(it.name, it.index)
			bit.Doc = it.doc
			bit.Pos = it.pos
		}
		bitfieldByName[b.name] = bf
	}

	structByName := make(map[string]*ortschema.Struct, len(raw.structs))
	fieldByName := make(map[*ortschema.Struct]map[string]*ortschema.Field)
	for _, rs := range raw.structs {
		if _, exists := structByName[rs.name]; exists {
			q.Errorf("struct", rs.pos, "duplicate struct %q", rs.name)
			continue
		}
		s := cfg.AddStruct(rs.name)
		s.Doc = rs.doc
		s.Pos = rs.pos
		structByName[rs.name] = s

		byField := make(map[string]*ortschema.Field, len(rs.fields))
		for _, rf := range rs.fields {
			if _, exists := byField[rf.name]; exists {
				q.Errorf("field", rf.pos, "duplicate field %s.%s", rs.name, rf.name)
				continue
			}
			ftype, ok := lookupFieldType(rf.typeWord)
			if !ok {
				q.Errorf("field", rf.pos, "field %s.%s has unknown type %q", rs.name, rf.name, rf.typeWord)
				continue
			}
			f := s.AddField(rf.name, ftype)
			f.Pos = rf.pos
			f.Doc = rf.doc
			f.Default = rf.defaultVal
			f.Flags = linkFlags(rf)
			byField[rf.name] = f
		}
		fieldByName[s] = byField
	}

	// Second pass: resolve every cross-entity name reference now that every
	// struct/field/enum/bitfield/role is known.
	for _, rs := range raw.structs {
		s := structByName[rs.name]
		if s == nil {
			continue
		}
		byField := fieldByName[s]
		for _, rf := range rs.fields {
			f := byField[rf.name]
			if f == nil {
				continue
			}
			switch f.Type {
			case ortschema.EnumType:
				enum, ok := enumByName[rf.typeArg]
				if !ok {
					q.Errorf("field", rf.pos, "field %s.%s references undeclared enum %q", rs.name, rf.name, rf.typeArg)
					continue
				}
				f.Enum = enum
			case ortschema.BitfieldType:
				bf, ok := bitfieldByName[rf.typeArg]
				if !ok {
					q.Errorf("field", rf.pos, "field %s.%s references undeclared bitfield %q", rs.name, rf.name, rf.typeArg)
					continue
				}
				f.Bitfield = bf
			}

			if rf.refStruct != "" {
				target, err := resolveFieldRef(structByName, fieldByName, rf.refStruct, rf.refField)
				if err != nil {
					q.Errorf("field", rf.pos, "field %s.%s: %s", rs.name, rf.name, err)
					continue
				}
				onDelete := actionFromKeyword(rf.onDelete)
				onUpdate := actionFromKeyword(rf.onUpdate)
				if err := f.SetRef(target, onDelete, onUpdate); err != nil {
					q.Errorf("field", rf.pos, "%s", err)
				}
			}

			if len(rf.rolemap) > 0 {
				rm, err := resolveRolemap(roleByName, rf.rolemap)
				if err != nil {
					q.Errorf("field", rf.pos, "field %s.%s: %s", rs.name, rf.name, err)
				} else {
					f.Rolemap = rm
				}
			}
		}

		if rs.insert != nil {
			rm, err := resolveRolemap(roleByName, rs.insert.rolemap)
			if err != nil {
				q.Errorf("insert", rs.insert.pos, "struct %s: %s", rs.name, err)
			}
			s.AddInsert(rm, rs.insert.doc)
		}

		for _, rsr := range rs.search {
			kind, ok := lookupSearchKind(rsr.kind)
			if !ok {
				q.Errorf("search", rsr.pos, "struct %s: unknown search kind %q", rs.name, rsr.kind)
				continue
			}
			sr := s.AddSearch(kind, rsr.name)
			sr.Doc = rsr.doc
			sr.Distinct = rsr.distinct
			sr.Pos = rsr.pos
			for _, term := range rsr.terms {
				op, ok := lookupOperator(term.op)
				if !ok {
					q.Errorf("search", rsr.pos, "struct %s: unknown operator %q", rs.name, term.op)
					continue
				}
				sr.Sentence = append(sr.Sentence, ortschema.SentenceTerm{Path: term.path, Op: op})
			}
			if len(rsr.rolemap) > 0 {
				rm, err := resolveRolemap(roleByName, rsr.rolemap)
				if err != nil {
					q.Errorf("search", rsr.pos, "struct %s: %s", rs.name, err)
				} else {
					sr.Rolemap = rm
				}
			}
		}

		for _, ru := range rs.update {
			kind := ortschema.Modify
			if ru.isDelete {
				kind = ortschema.Delete
			}
			u := s.AddUpdate(kind, ru.name)
			u.Doc = ru.doc
			u.Pos = ru.pos
			if ru.all {
				u.Flags |= ortschema.UpdateAll
			}
			for _, m := range ru.mods {
				field, ok := byField[m.field]
				if !ok {
					q.Errorf("update", ru.pos, "struct %s: unknown field %q in set clause", rs.name, m.field)
					continue
				}
				mod, ok := lookupModifier(m.mod)
				if !ok {
					q.Errorf("update", ru.pos, "struct %s: unknown modifier %q", rs.name, m.mod)
					continue
				}
				u.ModifyRefs = append(u.ModifyRefs, ortschema.ModifyRef{Field: field, Mod: mod})
			}
			for _, c := range ru.conds {
				field, ok := byField[c.field]
				if !ok {
					q.Errorf("update", ru.pos, "struct %s: unknown field %q in by clause", rs.name, c.field)
					continue
				}
				op, ok := lookupOperator(c.op)
				if !ok {
					q.Errorf("update", ru.pos, "struct %s: unknown operator %q", rs.name, c.op)
					continue
				}
				u.CondRefs = append(u.CondRefs, ortschema.ConditionRef{Field: field, Op: op})
			}
			if len(ru.rolemap) > 0 {
				rm, err := resolveRolemap(roleByName, ru.rolemap)
				if err != nil {
					q.Errorf("update", ru.pos, "struct %s: %s", rs.name, err)
				} else {
					u.Rolemap = rm
				}
			}
		}

		for _, run := range rs.unique {
			var fields []*ortschema.Field
			ok := true
			for _, name := range run.fields {
				f, found := byField[name]
				if !found {
					q.Errorf("unique", run.pos, "struct %s: unknown field %q in unique clause", rs.name, name)
					ok = false
					continue
				}
				fields = append(fields, f)
			}
			if ok {
				un := s.AddUnique(fields...)
				un.Pos = run.pos
			}
		}
	}

	if q.HasErrors() {
		return nil, q.Err()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reparentRole moves child from its AddRole-assigned default parent
// (cfg.RootRole) to the declared parent, keeping cfg.Roles/children slices
// consistent.
func reparentRole(cfg *ortschema.Config, child, parent *ortschema.Role) {
	old := child.Parent
	for i, c := range old.Children {
		if c == child {
			old.Children = append(old.Children[:i], old.Children[i+1:]...)
			break
		}
	}
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}

func resolveFieldRef(
	structByName map[string]*ortschema.Struct,
	fieldByName map[*ortschema.Struct]map[string]*ortschema.Field,
	structName, fieldName string,
) (*ortschema.Field, error) {
	target, ok := structByName[structName]
	if !ok {
		return nil, fmt.Errorf("references undeclared struct %q", structName)
	}
	f, ok := fieldByName[target][fieldName]
	if !ok {
		return nil, fmt.Errorf("references undeclared field %s.%s", structName, fieldName)
	}
	return f, nil
}

func resolveRolemap(roleByName map[string]*ortschema.Role, names []string) (*ortschema.Rolemap, error) {
	rm := &ortschema.Rolemap{}
	for _, name := range names {
		r, ok := roleByName[name]
		if !ok {
			return nil, fmt.Errorf("references undeclared role %q", name)
		}
		rm.Roles = append(rm.Roles, r)
	}
	return rm, nil
}

func linkFlags(rf *rawField) ortschema.FieldFlag {
	var f ortschema.FieldFlag
	if rf.rowid {
		f |= ortschema.FlagRowid
	}
	if rf.unique {
		f |= ortschema.FlagUnique
	}
	if rf.null {
		f |= ortschema.FlagNull
	}
	if rf.noexport {
		f |= ortschema.FlagNoExport
	}
	if rf.hasDefault {
		f |= ortschema.FlagHasDefault
	}
	return f
}

func actionFromKeyword(kw *string) ortschema.UpdateAction {
	if kw == nil {
		return ortschema.ActionNone
	}
	switch *kw {
	case "restrict":
		return ortschema.ActionRestrict
	case "nullify":
		return ortschema.ActionNullify
	case "cascade":
		return ortschema.ActionCascade
	case "default":
		return ortschema.ActionDefault
	default:
		return ortschema.ActionNone
	}
}

func lookupFieldType(word string) (ortschema.FieldType, bool) {
	switch word {
	case "bit":
		return ortschema.Bit, true
	case "date":
		return ortschema.Date, true
	case "epoch":
		return ortschema.Epoch, true
	case "int":
		return ortschema.Int, true
	case "real":
		return ortschema.Real, true
	case "blob":
		return ortschema.Blob, true
	case "text":
		return ortschema.Text, true
	case "password":
		return ortschema.Password, true
	case "email":
		return ortschema.Email, true
	case "enum":
		return ortschema.EnumType, true
	case "bitfield":
		return ortschema.BitfieldType, true
	case "struct":
		return ortschema.StructType, true
	default:
		return 0, false
	}
}

func lookupSearchKind(word string) (ortschema.SearchKind, bool) {
	switch word {
	case "count":
		return ortschema.Count, true
	case "get":
		return ortschema.Get, true
	case "list":
		return ortschema.List, true
	case "iterate":
		return ortschema.Iterate, true
	default:
		return 0, false
	}
}

func lookupOperator(word string) (ortschema.Operator, bool) {
	switch word {
	case "eq":
		return ortschema.OpEq, true
	case "ge":
		return ortschema.OpGe, true
	case "gt":
		return ortschema.OpGt, true
	case "le":
		return ortschema.OpLe, true
	case "lt":
		return ortschema.OpLt, true
	case "neq":
		return ortschema.OpNeq, true
	case "like":
		return ortschema.OpLike, true
	case "and":
		return ortschema.OpAnd, true
	case "or":
		return ortschema.OpOr, true
	case "streq":
		return ortschema.OpStreq, true
	case "strneq":
		return ortschema.OpStrneq, true
	case "isnull":
		return ortschema.OpIsNull, true
	case "notnull":
		return ortschema.OpNotNull, true
	default:
		return 0, false
	}
}

func lookupModifier(word string) (ortschema.ModifierType, bool) {
	switch word {
	case "cat":
		return ortschema.ModConcat, true
	case "dec":
		return ortschema.ModDec, true
	case "inc":
		return ortschema.ModInc, true
	case "set":
		return ortschema.ModSet, true
	case "strset":
		return ortschema.ModStrset, true
	default:
		return 0, false
	}
}
