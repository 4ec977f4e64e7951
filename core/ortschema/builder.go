package ortschema

import "fmt"

// NewConfig returns an empty Config with the synthetic "all" role already
// installed as the tree root (spec.md §3: "role tree has exactly one
// conceptual root").
func NewConfig() *Config {
	root := &Role{Name: "all"}
	return &Config{RootRole: root, Roles: []*Role{root}}
}

// AddStruct appends and returns a new, empty Struct owned by c.
func (c *Config) AddStruct(name string) *Struct {
	s := &Struct{Name: name}
	c.Structs = append(c.Structs, s)
	return s
}

// AddEnum appends and returns a new, empty Enum owned by c.
func (c *Config) AddEnum(name string) *Enum {
	e := &Enum{Name: name}
	c.Enums = append(c.Enums, e)
	return e
}

// AddBitfield appends and returns a new, empty Bitfield owned by c.
func (c *Config) AddBitfield(name string) *Bitfield {
	b := &Bitfield{Name: name}
	c.Bitfields = append(c.Bitfields, b)
	return b
}

// AddRole declares a new role as a child of parent (c.RootRole if parent is
// nil) and enables role-based auditing on c.
func (c *Config) AddRole(name string, parent *Role) *Role {
	if parent == nil {
		parent = c.RootRole
	}
	r := &Role{Name: name, Parent: parent}
	parent.Children = append(parent.Children, r)
	c.Roles = append(c.Roles, r)
	c.RolesEnabled = true
	return r
}

// AddField appends and returns a new Field owned by s.
func (s *Struct) AddField(name string, t FieldType) *Field {
	f := &Field{Name: name, Type: t, Parent: s}
	s.Fields = append(s.Fields, f)
	return f
}

// SetRef makes f a foreign key referencing target, which must carry the
// rowid flag and belong to a different Struct (spec.md §3 invariant).
func (f *Field) SetRef(target *Field, onDelete, onUpdate UpdateAction) error {
	if target.Parent == f.Parent {
		return fmt.Errorf("ortschema: field %s.%s cannot reference a field of its own struct", f.Parent.Name, f.Name)
	}
	if !target.Flags.Has(FlagRowid) {
		return fmt.Errorf("ortschema: field %s.%s reference target %s.%s is not a rowid", f.Parent.Name, f.Name, target.Parent.Name, target.Name)
	}
	f.Ref = &Ref{Source: f, Target: target, OnDelete: onDelete, OnUpdate: onUpdate}
	return nil
}

// AddInsert declares the single insert operation on s.
func (s *Struct) AddInsert(rolemap *Rolemap, doc string) *InsertOp {
	ins := &InsertOp{Parent: s, Rolemap: rolemap, Doc: doc}
	s.Insert = ins
	return ins
}

// AddSearch appends and returns a new Search owned by s.
func (s *Struct) AddSearch(kind SearchKind, name string) *Search {
	sr := &Search{Kind: kind, Parent: s, Name: name}
	s.Search = append(s.Search, sr)
	return sr
}

// AddUpdate appends and returns a new Update (Modify or Delete) owned by s.
func (s *Struct) AddUpdate(kind UpdateKind, name string) *Update {
	u := &Update{Kind: kind, Parent: s, Name: name}
	s.Update = append(s.Update, u)
	return u
}

// AddUnique appends and returns a new Unique owned by s.
func (s *Struct) AddUnique(fields ...*Field) *Unique {
	n := &Unique{Parent: s, Fields: fields}
	s.Unique = append(s.Unique, n)
	return n
}

// AddItem appends a new integer-valued item to e.
func (e *Enum) AddItem(name string, value int64) *EnumItem {
	it := &EnumItem{Name: name, Value: value}
	e.Items = append(e.Items, it)
	return it
}

// AddBit appends a new bit position to b.
func (b *Bitfield) AddBit(name string, index int64) *BitIdx {
	it := &BitIdx{Name: name, Index: index}
	b.Items = append(b.Items, it)
	return it
}
