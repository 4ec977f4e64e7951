package parser

import "github.com/ortlang/ortc/core/ortschema"

// The parser runs in two phases, matching spec.md §6's parse_config /
// parse_link external-collaborator contract: parseConfig builds a tree of
// raw, name-referencing declarations (the types in this file), and link
// resolves those names against each other into a linked *ortschema.Config
// (link.go). Parse runs both.

type rawConfig struct {
	roles     []*rawRole
	enums     []*rawEnum
	bitfields []*rawBitfield
	structs   []*rawStruct
}

type rawRole struct {
	name   string
	parent string
	doc    string
	pos    ortschema.Pos
}

type rawEnumItem struct {
	name  string
	value int64
	doc   string
	pos   ortschema.Pos
}

type rawEnum struct {
	name  string
	items []*rawEnumItem
	doc   string
	pos   ortschema.Pos
}

type rawBitIdx struct {
	name  string
	index int64
	doc   string
	pos   ortschema.Pos
}

type rawBitfield struct {
	name  string
	items []*rawBitIdx
	doc   string
	pos   ortschema.Pos
}

type rawField struct {
	name       string
	typeWord   string
	typeArg    string // enum/bitfield/struct-target name
	rowid      bool
	unique     bool
	null       bool
	noexport   bool
	hasDefault bool
	defaultVal string
	refStruct  string
	refField   string
	onDelete   *string // nil unless "ondelete <action>" was present
	onUpdate   *string // nil unless "onupdate <action>" was present
	rolemap    []string
	doc        string
	pos        ortschema.Pos
}

type rawSentTerm struct {
	path []string
	op   string
}

type rawSearch struct {
	kind     string
	name     string
	terms    []rawSentTerm
	groupBy  []string
	orderBy  []string
	distinct bool
	rolemap  []string
	doc      string
	pos      ortschema.Pos
}

type rawModTerm struct {
	field string
	mod   string
}

type rawCondTerm struct {
	field string
	op    string
}

type rawUpdate struct {
	isDelete bool
	name     string
	mods     []rawModTerm
	conds    []rawCondTerm
	all      bool
	rolemap  []string
	doc      string
	pos      ortschema.Pos
}

type rawInsert struct {
	rolemap []string
	doc     string
	pos     ortschema.Pos
}

type rawUnique struct {
	fields []string
	pos    ortschema.Pos
}

type rawStruct struct {
	name    string
	fields  []*rawField
	insert  *rawInsert
	search  []*rawSearch
	update  []*rawUpdate
	unique  []*rawUnique
	doc     string
	pos     ortschema.Pos
}
