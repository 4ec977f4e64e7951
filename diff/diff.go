// Package diff computes a structural, two-IR comparison reduced to the
// tagged diff-record taxonomy of spec.md §4.6. It is a from-scratch
// IR-vs-IR walk — unlike the teacher's migration/schemadiff, which diffs a
// parsed schema against a live introspected database (out of scope per
// spec.md's no-network Non-goal) — but keeps that package's
// lookup-map-then-classify structure and sorted-for-determinism discipline.
package diff

import (
	"log/slog"
	"sort"

	"github.com/ortlang/ortc/core/ortschema"
)

// Option configures a Compare call with the teacher's WithLogger fluent
// idiom, adapted to a functional option since Compare is a plain
// entry-point function.
type Option func(*compareOptions)

type compareOptions struct {
	logger *slog.Logger
}

// WithLogger overrides the *slog.Logger Compare reports its record count
// to. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *compareOptions) { o.logger = l }
}

// Tag names one diff-record variant, using the literal tokens spec.md
// §4.6 pins.
type Tag int

const (
	AddStruct Tag = iota
	DelStruct
	ModStruct
	AddField
	DelField
	ModFieldType
	ModFieldFlags
	ModFieldActions
	ModFieldReference
	ModFieldEnum
	ModFieldBitfield
	ModFieldDefault
	ModFieldDoc
	AddEnum
	DelEnum
	ModEnumItemValue
	AddEnumItem
	DelEnumItem
	AddBitfield
	DelBitfield
	ModBitIdxValue
	AddBitIdx
	DelBitIdx
	AddUnique
	DelUnique
)

func (t Tag) String() string {
	switch t {
	case AddStruct:
		return "ADD_STRCT"
	case DelStruct:
		return "DEL_STRCT"
	case ModStruct:
		return "MOD_STRCT"
	case AddField:
		return "ADD_FIELD"
	case DelField:
		return "DEL_FIELD"
	case ModFieldType:
		return "MOD_FIELD_TYPE"
	case ModFieldFlags:
		return "MOD_FIELD_FLAGS"
	case ModFieldActions:
		return "MOD_FIELD_ACTIONS"
	case ModFieldReference:
		return "MOD_FIELD_REFERENCE"
	case ModFieldEnum:
		return "MOD_FIELD_ENM"
	case ModFieldBitfield:
		return "MOD_FIELD_BITF"
	case ModFieldDefault:
		return "MOD_FIELD_DEFAULT"
	case ModFieldDoc:
		return "MOD_FIELD_DOC"
	case AddEnum:
		return "ADD_ENM"
	case DelEnum:
		return "DEL_ENM"
	case ModEnumItemValue:
		return "MOD_EITEM_VALUE"
	case AddEnumItem:
		return "ADD_EITEM"
	case DelEnumItem:
		return "DEL_EITEM"
	case AddBitfield:
		return "ADD_BITF"
	case DelBitfield:
		return "DEL_BITF"
	case ModBitIdxValue:
		return "MOD_BITIDX_VALUE"
	case AddBitIdx:
		return "ADD_BITIDX"
	case DelBitIdx:
		return "DEL_BITIDX"
	case AddUnique:
		return "ADD_UNIQUE"
	case DelUnique:
		return "DEL_UNIQUE"
	default:
		return "UNKNOWN"
	}
}

// Record is one tagged diff entry. The From*/Into* pointers hold whichever
// side's entity applies to Tag for struct, field, enum and bitfield records
// (e.g. DelStruct carries only From, AddStruct only Into, MOD_STRCT and
// MOD_FIELD_* carry both). Enum-item, bit-index and unique records set no
// entity pointer; they carry only the names and positions.
type Record struct {
	Tag      Tag
	FromPos  ortschema.Pos
	IntoPos  ortschema.Pos
	Struct   string // struct name this record concerns (or the struct itself, for ADD/DEL/MOD_STRCT)
	Field    string // field name, when applicable
	Enum     string
	Bitfield string
	Item     string // enum item / bit index name

	FromStruct   *ortschema.Struct
	IntoStruct   *ortschema.Struct
	FromField    *ortschema.Field
	IntoField    *ortschema.Field
	FromEnum     *ortschema.Enum
	IntoEnum     *ortschema.Enum
	FromBitfield *ortschema.Bitfield
	IntoBitfield *ortschema.Bitfield
}

// Compare produces the ordered diff queue between from and into, per
// spec.md §4.6's determinism contract: Enums before Bitfields before
// Structs; within each, declaration order of into first, then leftover
// from entries.
func Compare(from, into *ortschema.Config, opts ...Option) []Record {
	o := &compareOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	var recs []Record
	recs = append(recs, compareEnums(from, into)...)
	recs = append(recs, compareBitfields(from, into)...)
	recs = append(recs, compareStructs(from, into)...)
	o.logger.Debug("diff: compared schemas", "records", len(recs))
	return recs
}

func compareEnums(from, into *ortschema.Config) []Record {
	var recs []Record
	fromByName := indexEnums(from.Enums)
	seen := make(map[string]bool)
	for _, ie := range into.Enums {
		seen[ie.Name] = true
		fe, ok := fromByName[ie.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddEnum, Enum: ie.Name, IntoPos: ie.Pos, IntoEnum: ie})
			continue
		}
		recs = append(recs, compareEnumItems(fe, ie)...)
	}
	for _, fe := range from.Enums {
		if seen[fe.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelEnum, Enum: fe.Name, FromPos: fe.Pos, FromEnum: fe})
	}
	return recs
}

func compareEnumItems(from, into *ortschema.Enum) []Record {
	var recs []Record
	fromByName := make(map[string]*ortschema.EnumItem, len(from.Items))
	for _, it := range from.Items {
		fromByName[it.Name] = it
	}
	seen := make(map[string]bool)
	for _, it := range into.Items {
		seen[it.Name] = true
		fi, ok := fromByName[it.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddEnumItem, Enum: into.Name, Item: it.Name, IntoPos: it.Pos})
			continue
		}
		if fi.Value != it.Value {
			recs = append(recs, Record{Tag: ModEnumItemValue, Enum: into.Name, Item: it.Name, FromPos: fi.Pos, IntoPos: it.Pos})
		}
	}
	for _, fi := range from.Items {
		if seen[fi.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelEnumItem, Enum: from.Name, Item: fi.Name, FromPos: fi.Pos})
	}
	return recs
}

func compareBitfields(from, into *ortschema.Config) []Record {
	var recs []Record
	fromByName := make(map[string]*ortschema.Bitfield, len(from.Bitfields))
	for _, b := range from.Bitfields {
		fromByName[b.Name] = b
	}
	seen := make(map[string]bool)
	for _, ib := range into.Bitfields {
		seen[ib.Name] = true
		fb, ok := fromByName[ib.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddBitfield, Bitfield: ib.Name, IntoPos: ib.Pos, IntoBitfield: ib})
			continue
		}
		recs = append(recs, compareBitIdxs(fb, ib)...)
	}
	for _, fb := range from.Bitfields {
		if seen[fb.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelBitfield, Bitfield: fb.Name, FromPos: fb.Pos, FromBitfield: fb})
	}
	return recs
}

func compareBitIdxs(from, into *ortschema.Bitfield) []Record {
	var recs []Record
	fromByName := make(map[string]*ortschema.BitIdx, len(from.Items))
	for _, it := range from.Items {
		fromByName[it.Name] = it
	}
	seen := make(map[string]bool)
	for _, it := range into.Items {
		seen[it.Name] = true
		fi, ok := fromByName[it.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddBitIdx, Bitfield: into.Name, Item: it.Name, IntoPos: it.Pos})
			continue
		}
		if fi.Index != it.Index {
			recs = append(recs, Record{Tag: ModBitIdxValue, Bitfield: into.Name, Item: it.Name, FromPos: fi.Pos, IntoPos: it.Pos})
		}
	}
	for _, fi := range from.Items {
		if seen[fi.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelBitIdx, Bitfield: from.Name, Item: fi.Name, FromPos: fi.Pos})
	}
	return recs
}

func compareStructs(from, into *ortschema.Config) []Record {
	var recs []Record
	fromByName := make(map[string]*ortschema.Struct, len(from.Structs))
	for _, s := range from.Structs {
		fromByName[s.Name] = s
	}
	seen := make(map[string]bool)
	for _, is := range into.Structs {
		seen[is.Name] = true
		fs, ok := fromByName[is.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddStruct, Struct: is.Name, IntoPos: is.Pos, IntoStruct: is})
			continue
		}
		if fs.Doc != is.Doc {
			recs = append(recs, Record{Tag: ModStruct, Struct: is.Name, FromPos: fs.Pos, IntoPos: is.Pos, FromStruct: fs, IntoStruct: is})
		}
		recs = append(recs, compareFields(fs, is)...)
		recs = append(recs, compareUniques(fs, is)...)
	}
	for _, fs := range from.Structs {
		if seen[fs.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelStruct, Struct: fs.Name, FromPos: fs.Pos, FromStruct: fs})
	}
	return recs
}

func compareFields(from, into *ortschema.Struct) []Record {
	var recs []Record
	fromByName := make(map[string]*ortschema.Field, len(from.Fields))
	for _, f := range from.Fields {
		fromByName[f.Name] = f
	}
	seen := make(map[string]bool)
	for _, inf := range into.Fields {
		seen[inf.Name] = true
		ff, ok := fromByName[inf.Name]
		if !ok {
			recs = append(recs, Record{Tag: AddField, Struct: into.Name, Field: inf.Name, IntoPos: inf.Pos, IntoField: inf})
			continue
		}
		recs = append(recs, compareOneField(into.Name, ff, inf)...)
	}
	for _, ff := range from.Fields {
		if seen[ff.Name] {
			continue
		}
		recs = append(recs, Record{Tag: DelField, Struct: from.Name, Field: ff.Name, FromPos: ff.Pos, FromField: ff})
	}
	return recs
}

func compareOneField(structName string, from, into *ortschema.Field) []Record {
	var recs []Record
	base := Record{Struct: structName, Field: into.Name, FromPos: from.Pos, IntoPos: into.Pos, FromField: from, IntoField: into}

	if from.Type != into.Type {
		r := base
		r.Tag = ModFieldType
		recs = append(recs, r)
	}
	if from.Flags != into.Flags {
		r := base
		r.Tag = ModFieldFlags
		recs = append(recs, r)
	}
	if refActionsDiffer(from, into) {
		r := base
		r.Tag = ModFieldActions
		recs = append(recs, r)
	}
	if refTargetDiffers(from, into) {
		r := base
		r.Tag = ModFieldReference
		recs = append(recs, r)
	}
	if enumDiffers(from, into) {
		r := base
		r.Tag = ModFieldEnum
		recs = append(recs, r)
	}
	if bitfieldDiffers(from, into) {
		r := base
		r.Tag = ModFieldBitfield
		recs = append(recs, r)
	}
	if from.Default != into.Default {
		r := base
		r.Tag = ModFieldDefault
		recs = append(recs, r)
	}
	if from.Doc != into.Doc {
		r := base
		r.Tag = ModFieldDoc
		recs = append(recs, r)
	}
	return recs
}

func refActionsDiffer(from, into *ortschema.Field) bool {
	if (from.Ref == nil) != (into.Ref == nil) {
		return false // absence/presence is covered by MOD_FIELD_REFERENCE
	}
	if from.Ref == nil {
		return false
	}
	return from.Ref.OnDelete != into.Ref.OnDelete || from.Ref.OnUpdate != into.Ref.OnUpdate
}

func refTargetDiffers(from, into *ortschema.Field) bool {
	fRef, iRef := from.Ref, into.Ref
	if fRef == nil && iRef == nil {
		return false
	}
	if fRef == nil || iRef == nil {
		return true
	}
	return fRef.Target.Parent.Name != iRef.Target.Parent.Name || fRef.Target.Name != iRef.Target.Name
}

func enumDiffers(from, into *ortschema.Field) bool {
	fName, iName := "", ""
	if from.Enum != nil {
		fName = from.Enum.Name
	}
	if into.Enum != nil {
		iName = into.Enum.Name
	}
	return fName != iName
}

func bitfieldDiffers(from, into *ortschema.Field) bool {
	fName, iName := "", ""
	if from.Bitfield != nil {
		fName = from.Bitfield.Name
	}
	if into.Bitfield != nil {
		iName = into.Bitfield.Name
	}
	return fName != iName
}

func compareUniques(from, into *ortschema.Struct) []Record {
	var recs []Record
	fromByKey := make(map[string]*ortschema.Unique, len(from.Unique))
	for _, u := range from.Unique {
		fromByKey[uniqueKey(u)] = u
	}
	seen := make(map[string]bool)
	for _, iu := range into.Unique {
		key := uniqueKey(iu)
		seen[key] = true
		if _, ok := fromByKey[key]; !ok {
			recs = append(recs, Record{Tag: AddUnique, Struct: into.Name, IntoPos: iu.Pos})
		}
	}
	for _, fu := range from.Unique {
		if seen[uniqueKey(fu)] {
			continue
		}
		recs = append(recs, Record{Tag: DelUnique, Struct: from.Name, FromPos: fu.Pos})
	}
	return recs
}

// uniqueKey is the canonical sorted tuple of field names a Unique covers,
// per spec.md §4.6's matching rule.
func uniqueKey(u *ortschema.Unique) string {
	names := make([]string, len(u.Fields))
	for i, f := range u.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

func indexEnums(enums []*ortschema.Enum) map[string]*ortschema.Enum {
	m := make(map[string]*ortschema.Enum, len(enums))
	for _, e := range enums {
		m[e.Name] = e
	}
	return m
}
