// Package ortschema defines the in-memory intermediate representation (IR)
// for the ort schema language: structures and their fields, enumerations and
// bitfields, the role hierarchy, and the named queries/inserts/updates that
// hang off a structure.
//
// A Config exclusively owns every Struct, Enum, Bitfield, and Role it holds;
// a Struct exclusively owns its Fields, Searches, Updates, and Uniques.
// Cross-entity edges (Ref targets, enum/bitfield references, rolemap role
// references, unique field references) are non-owning back-references whose
// validity is guaranteed by the Config's lifetime — see DESIGN.md.
package ortschema

// FieldType enumerates the scalar types a Field may carry.
type FieldType int

const (
	Bit FieldType = iota
	Date
	Epoch
	Int
	Real
	Blob
	Text
	Password
	Email
	EnumType
	BitfieldType
	StructType
	fieldTypeMax
)

// ftypes maps a FieldType to its SQLite column type. A struct-typed field
// has no column of its own (the empty string marks "omit"); ported in meaning from the
// original compiler's ftypes[] table (lang-sql.c).
var ftypes = [fieldTypeMax]string{
	Bit:          "INTEGER",
	Date:         "INTEGER",
	Epoch:        "INTEGER",
	Int:          "INTEGER",
	Real:         "REAL",
	Blob:         "BLOB",
	Text:         "TEXT",
	Password:     "TEXT",
	Email:        "TEXT",
	EnumType:     "INTEGER",
	BitfieldType: "INTEGER",
	StructType:   "",
}

// SQLType returns the SQLite column type for t, or "" if t has no column
// representation (struct-typed fields materialize only as the referring
// field's FK).
func (t FieldType) SQLType() string {
	if int(t) < 0 || int(t) >= len(ftypes) {
		return ""
	}
	return ftypes[t]
}

func (t FieldType) String() string {
	switch t {
	case Bit:
		return "bit"
	case Date:
		return "date"
	case Epoch:
		return "epoch"
	case Int:
		return "int"
	case Real:
		return "real"
	case Blob:
		return "blob"
	case Text:
		return "text"
	case Password:
		return "password"
	case Email:
		return "email"
	case EnumType:
		return "enum"
	case BitfieldType:
		return "bitfield"
	case StructType:
		return "struct"
	default:
		return "unknown"
	}
}

// IsTextShaped reports whether t supports like/streq/strneq operators.
func (t FieldType) IsTextShaped() bool {
	return t == Text || t == Password || t == Email
}

// IsNumericShaped reports whether t supports numeric comparators.
func (t FieldType) IsNumericShaped() bool {
	switch t {
	case Bit, Date, Epoch, Int, Real, EnumType, BitfieldType:
		return true
	default:
		return false
	}
}

// FieldFlag is a bitmask of field flags.
type FieldFlag int

const (
	FlagRowid FieldFlag = 1 << iota
	FlagUnique
	FlagNull
	FlagNoExport
	FlagHasDefault
)

func (f FieldFlag) Has(flag FieldFlag) bool { return f&flag != 0 }

// UpdateAction is the ON DELETE / ON UPDATE action for a Ref.
type UpdateAction int

const (
	ActionNone UpdateAction = iota
	ActionRestrict
	ActionNullify
	ActionCascade
	ActionDefault
	updateActionMax
)

// upacts maps an UpdateAction to its DDL keyword; ported in meaning from
// the original compiler's upacts[] table (lang-sql.c).
var upacts = [updateActionMax]string{
	ActionNone:     "",
	ActionRestrict: "RESTRICT",
	ActionNullify:  "SET NULL",
	ActionCascade:  "CASCADE",
	ActionDefault:  "SET DEFAULT",
}

func (a UpdateAction) String() string {
	if int(a) < 0 || int(a) >= len(upacts) {
		return ""
	}
	return upacts[a]
}

// SearchKind enumerates the four query shapes a Search may take.
type SearchKind int

const (
	Count SearchKind = iota
	Get
	List
	Iterate
	searchKindMax
)

var stypes = [searchKindMax]string{
	Count:   "count",
	Get:     "get",
	List:    "list",
	Iterate: "iterate",
}

func (k SearchKind) String() string {
	if int(k) < 0 || int(k) >= len(stypes) {
		return ""
	}
	return stypes[k]
}

// Operator enumerates the comparison/logical operators usable in a search
// sentence or update condition reference.
type Operator int

const (
	OpEq Operator = iota
	OpGe
	OpGt
	OpLe
	OpLt
	OpNeq
	OpLike
	OpAnd
	OpOr
	OpStreq
	OpStrneq
	OpIsNull
	OpNotNull
	operatorMax
)

var optypes = [operatorMax]string{
	OpEq:     "eq",
	OpGe:     "ge",
	OpGt:     "gt",
	OpLe:     "le",
	OpLt:     "lt",
	OpNeq:    "neq",
	OpLike:   "like",
	OpAnd:    "and",
	OpOr:     "or",
	OpStreq:  "streq",
	OpStrneq: "strneq",
	OpIsNull: "isnull",
	OpNotNull: "notnull",
}

func (o Operator) String() string {
	if int(o) < 0 || int(o) >= len(optypes) {
		return ""
	}
	return optypes[o]
}

// IsUnary reports whether the operator takes no comparison value.
func (o Operator) IsUnary() bool { return o == OpIsNull || o == OpNotNull }

// ModifierType enumerates how an Update's modify-ref changes a field.
type ModifierType int

const (
	ModConcat ModifierType = iota
	ModDec
	ModInc
	ModSet
	ModStrset
	modifierTypeMax
)

var modtypes = [modifierTypeMax]string{
	ModConcat: "cat",
	ModDec:    "dec",
	ModInc:    "inc",
	ModSet:    "set",
	ModStrset: "strset",
}

func (m ModifierType) String() string {
	if int(m) < 0 || int(m) >= len(modtypes) {
		return ""
	}
	return modtypes[m]
}

// UpdateKind distinguishes a row-modifying Update from a row-Delete.
type UpdateKind int

const (
	Modify UpdateKind = iota
	Delete
	updateKindMax
)

var utypes = [updateKindMax]string{
	Modify: "update",
	Delete: "delete",
}

func (k UpdateKind) String() string {
	if int(k) < 0 || int(k) >= len(utypes) {
		return ""
	}
	return utypes[k]
}

// Pos is a source position, carried on entities so diagnostics and diff
// records can report file:line:col.
type Pos struct {
	Filename string
	Line     int
	Column   int
}

// Role is one node of the role tree rooted at a synthetic "all" node.
type Role struct {
	Name     string
	Doc      string
	Parent   *Role
	Children []*Role
	Pos      Pos
}

// Rolemap is the set of roles granted access to an operation, or (for a
// Field) the set of roles denied export — see DESIGN.md's Open Question
// decision on field rolemap semantics.
type Rolemap struct {
	Roles []*Role
}

// Has reports whether any role in the rolemap names exactly r (ancestor
// inclusion is evaluated by the caller via the role resolver).
func (rm *Rolemap) Has(r *Role) bool {
	if rm == nil {
		return false
	}
	for _, rr := range rm.Roles {
		if rr == r {
			return true
		}
	}
	return false
}

// Ref is the non-owning cross-Struct back-edge created by a struct-typed
// field or a foreign-key field.
type Ref struct {
	Source   *Field
	Target   *Field
	OnDelete UpdateAction
	OnUpdate UpdateAction
}

// Field is a single column definition belonging to a Struct.
type Field struct {
	Name     string
	Type     FieldType
	Flags    FieldFlag
	Default  string
	Ref      *Ref
	Enum     *Enum
	Bitfield *Bitfield
	Doc      string
	Rolemap  *Rolemap
	Parent   *Struct
	Pos      Pos
}

// SentenceTerm is one (column path, operator) pair of a Search's sentence.
type SentenceTerm struct {
	Path []string // dotted column path, e.g. ["author", "email"]
	Op   Operator
}

// Search is a named or unnamed query (count/get/list/iterate) on a Struct.
type Search struct {
	Kind      SearchKind
	Parent    *Struct
	Name      string // "" if unnamed
	Sentence  []SentenceTerm
	GroupBy   []string
	OrderBy   []string
	Aggregate string
	Distinct  bool
	Rolemap   *Rolemap
	Doc       string
	Pos       Pos
}

// ModifyRef is one (field, modifier) pair of a Modify Update.
type ModifyRef struct {
	Field *Field
	Mod   ModifierType
}

// ConditionRef is one (field, operator) pair of an Update's WHERE clause.
type ConditionRef struct {
	Field *Field
	Op    Operator
}

// UpdateFlag is a bitmask of update-specific flags.
type UpdateFlag int

const (
	UpdateAll UpdateFlag = 1 << iota
)

// Update is a named or unnamed modify/delete operation on a Struct.
type Update struct {
	Kind       UpdateKind
	Parent     *Struct
	Name       string
	ModifyRefs []ModifyRef
	CondRefs   []ConditionRef
	Flags      UpdateFlag
	Rolemap    *Rolemap
	Doc        string
	Pos        Pos
}

// Unique is an ordered set of fields of one Struct that must be jointly
// unique.
type Unique struct {
	Parent *Struct
	Fields []*Field
	Pos    Pos
}

// Struct is a table definition: an ordered field list plus its operations.
type Struct struct {
	Name   string
	Fields []*Field
	Insert *InsertOp
	Search []*Search
	Update []*Update // includes both Modify and Delete kind updates
	Unique []*Unique
	Doc    string
	Pos    Pos
}

// InsertOp is the optional single insert operation a Struct may declare.
type InsertOp struct {
	Parent  *Struct
	Rolemap *Rolemap
	Doc     string
	Pos     Pos
}

// Updates returns only the modify-kind updates, in declaration order.
func (s *Struct) Updates() []*Update {
	var out []*Update
	for _, u := range s.Update {
		if u.Kind == Modify {
			out = append(out, u)
		}
	}
	return out
}

// Deletes returns only the delete-kind updates, in declaration order.
func (s *Struct) Deletes() []*Update {
	var out []*Update
	for _, u := range s.Update {
		if u.Kind == Delete {
			out = append(out, u)
		}
	}
	return out
}

// Searches returns the searches of kind k, in declaration order.
func (s *Struct) Searches(k SearchKind) []*Search {
	var out []*Search
	for _, sr := range s.Search {
		if sr.Kind == k {
			out = append(out, sr)
		}
	}
	return out
}

// RowidField returns the Struct's rowid column, if declared.
func (s *Struct) RowidField() *Field {
	for _, f := range s.Fields {
		if f.Flags.Has(FlagRowid) {
			return f
		}
	}
	return nil
}

// EnumItem is one labeled value of an Enum.
type EnumItem struct {
	Name  string
	Value int64
	Doc   string
	Pos   Pos
}

// Enum is a named, ordered list of integer-valued items.
type Enum struct {
	Name  string
	Items []*EnumItem
	Doc   string
	Pos   Pos
}

// BitIdx is one named bit position of a Bitfield.
type BitIdx struct {
	Name  string
	Index int64
	Doc   string
	Pos   Pos
}

// Bitfield is a named, ordered list of bit positions.
type Bitfield struct {
	Name  string
	Items []*BitIdx
	Doc   string
	Pos   Pos
}

// Config is the top-level owner of every entity in one parsed schema.
type Config struct {
	Structs       []*Struct
	Enums         []*Enum
	Bitfields     []*Bitfield
	Roles         []*Role
	RolesEnabled  bool // true once at least one role besides the synthetic root is declared
	RootRole      *Role
	Languages     []string
}

// FindStruct returns the named struct, or nil.
func (c *Config) FindStruct(name string) *Struct {
	for _, s := range c.Structs {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindEnum returns the named enum, or nil.
func (c *Config) FindEnum(name string) *Enum {
	for _, e := range c.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// FindBitfield returns the named bitfield, or nil.
func (c *Config) FindBitfield(name string) *Bitfield {
	for _, b := range c.Bitfields {
		if b.Name == name {
			return b
		}
	}
	return nil
}
