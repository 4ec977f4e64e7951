// Package audit computes, for a chosen role, the set of operations visible
// to that role and the struct-reachability/field-export closure implied by
// those operations — spec.md §4.3.
package audit

import (
	"fmt"
	"log/slog"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/core/ortschema/role"
)

// Option configures a Run call, in the teacher's WithLogger fluent idiom
// (migration/migrator.Migrator.WithLogger) adapted to a functional option
// since Run is a plain entry-point function, not a long-lived struct.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger overrides the *slog.Logger Run reports progress and failures
// to. The default, per the teacher's pattern, is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// AccessFrom records one search that reaches a struct, annotated with the
// dotted struct-typed-field path used to get there ("" when the search's
// own parent is the reached struct) and whether that particular path
// exports data, per spec.md §4.3 point 3.
type AccessFrom struct {
	Search   *ortschema.Search
	Exported bool
	Path     string
}

// StructAccess is the per-struct entry of a Report's access list.
type StructAccess struct {
	Struct         *ortschema.Struct
	Exportable     bool
	AccessFrom     []AccessFrom
	InsertSymbol   string // "" if the insert is absent or not visible
	UpdateSymbols  []string
	DeleteSymbols  []string
	IterateSymbols []string
	ListSymbols    []string
	SearchSymbols  []string
}

// FunctionKind names the operation kind behind a FunctionInfo, using the
// literal tokens spec.md §4.4 pins ("insert", or a SearchKind/UpdateKind
// string).
type FunctionKind = string

// FunctionInfo is one entry of a Report's Functions list — spec.md §4.4's
// `functions: { <symbol>: { doc, type } }`.
type FunctionInfo struct {
	Symbol string
	Doc    string
	Type   FunctionKind
}

// FieldInfo is one entry of a Report's Fields list — spec.md §4.4's
// `fields: { "<struct>.<field>": { export, doc } }`.
type FieldInfo struct {
	Key    string
	Export bool
	Doc    string
}

// Report is the full audit result for one role, in the declaration order
// spec.md §4.3 pins as the engine's determinism contract.
type Report struct {
	Role      *ortschema.Role
	RoleDoc   string
	Access    []StructAccess
	Functions []FunctionInfo
	Fields    []FieldInfo
}

// Run computes the Report for cfg and the named role, per spec.md §4.3's
// failure semantics ("roles not enabled" / "role not found: <name>").
func Run(cfg *ortschema.Config, roleName string, opts ...Option) (*Report, error) {
	o := &runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if !cfg.RolesEnabled {
		o.logger.Warn("audit: roles not enabled")
		return nil, fmt.Errorf("roles not enabled")
	}
	resolver := role.New(cfg.Roles)
	r, ok := resolver.Find(roleName)
	if !ok {
		o.logger.Warn("audit: role not found", "role", roleName)
		return nil, fmt.Errorf("role not found: %s", roleName)
	}

	e := &engine{cfg: cfg, role: r}
	rep := e.run()
	o.logger.Debug("audit: computed report", "role", roleName,
		"structs", len(rep.Access), "functions", len(rep.Functions))
	return rep, nil
}

type engine struct {
	cfg  *ortschema.Config
	role *ortschema.Role

	// reached maps every struct proven reachable to its ordered AccessFrom
	// list, built in discovery order as spec.md §4.3 requires.
	reached map[*ortschema.Struct]*[]AccessFrom
	// visited is the cycle guard for the search traversal currently in
	// progress (spec.md §4.3 cycle note). It is reset per top-level search
	// so that two different visible searches reaching the same struct both
	// contribute their own AccessFrom entry instead of the second being
	// silently dropped by a guard left over from the first.
	visited map[*ortschema.Struct]bool
}

func (e *engine) run() *Report {
	e.reached = make(map[*ortschema.Struct]*[]AccessFrom)

	rep := &Report{Role: e.role, RoleDoc: e.role.Doc}

	// Pass 1: walk every visible search's struct-typed field traversals.
	// accessfrom entries (spec.md §4.3 point 3) come only from searches —
	// an insert/update/delete makes its own struct reachable too, but
	// contributes no accessfrom entry, matching gen_audit_exportable's
	// srs array in audit-json.c (built only from AUDIT_QUERY records).
	for _, s := range e.cfg.Structs {
		if s.Insert != nil && e.grants(s.Insert.Rolemap) {
			e.ensureReached(s)
		}
		for _, u := range s.Update {
			if e.grants(u.Rolemap) {
				e.ensureReached(s)
			}
		}
		for _, sr := range s.Search {
			if !e.grants(sr.Rolemap) {
				continue
			}
			e.markReachable(s, AccessFrom{Search: sr, Path: "", Exported: true})
			e.traverse(s, sr)
		}
	}

	// Pass 2: per-struct access entries, in declaration order.
	for _, s := range e.cfg.Structs {
		rep.Access = append(rep.Access, e.structAccess(s))
	}

	// Pass 3: functions map, in the teacher's fixed category order
	// (queries, updates, deletes, insert) per struct, matching
	// gen_protos_queries/gen_protos_updates/gen_protos_fields call order in
	// audit-json.c's gen_audit_json.
	for _, s := range e.cfg.Structs {
		for _, sr := range s.Search {
			if e.grants(sr.Rolemap) {
				rep.Functions = append(rep.Functions, FunctionInfo{
					Symbol: SearchSymbol(sr), Doc: sr.Doc, Type: sr.Kind.String(),
				})
			}
		}
		for _, u := range s.Updates() {
			if e.grants(u.Rolemap) {
				rep.Functions = append(rep.Functions, FunctionInfo{
					Symbol: UpdateSymbol(u), Doc: u.Doc, Type: u.Kind.String(),
				})
			}
		}
		for _, u := range s.Deletes() {
			if e.grants(u.Rolemap) {
				rep.Functions = append(rep.Functions, FunctionInfo{
					Symbol: UpdateSymbol(u), Doc: u.Doc, Type: u.Kind.String(),
				})
			}
		}
		if s.Insert != nil && e.grants(s.Insert.Rolemap) {
			rep.Functions = append(rep.Functions, FunctionInfo{
				Symbol: InsertSymbol(s), Doc: "", Type: "insert",
			})
		}
	}

	// Pass 4: field export table, declaration order.
	for _, s := range e.cfg.Structs {
		for _, f := range s.Fields {
			rep.Fields = append(rep.Fields, FieldInfo{
				Key:    s.Name + "." + f.Name,
				Export: e.fieldExported(f),
				Doc:    f.Doc,
			})
		}
	}

	return rep
}

func (e *engine) grants(rm *ortschema.Rolemap) bool {
	return role.GrantsAccess(rm, e.role)
}

// ensureReached records s as reachable without adding an accessfrom entry,
// for direct insert/update/delete visibility.
func (e *engine) ensureReached(s *ortschema.Struct) {
	if _, ok := e.reached[s]; !ok {
		e.reached[s] = &[]AccessFrom{}
	}
}

func (e *engine) markReachable(s *ortschema.Struct, af AccessFrom) {
	list, ok := e.reached[s]
	if !ok {
		list = &[]AccessFrom{}
		e.reached[s] = list
	}
	*list = append(*list, af)
}

// traverse walks search sr's sentence terms, following any struct-typed
// field prefix of each path to the struct(s) it ultimately resolves to —
// spec.md §4.3 point 2 ("transitive closure over struct-typed field
// traversals from visible queries").
func (e *engine) traverse(from *ortschema.Struct, sr *ortschema.Search) {
	e.visited = make(map[*ortschema.Struct]bool)
	for _, term := range sr.Sentence {
		if len(term.Path) < 2 {
			continue
		}
		cur := from
		exported := true
		var pathSegs []string
		for _, seg := range term.Path[:len(term.Path)-1] {
			field := findField(cur, seg)
			if field == nil || field.Type != ortschema.StructType || field.Ref == nil {
				break
			}
			pathSegs = append(pathSegs, seg)
			if !e.fieldExported(field) {
				exported = false
			}
			target := field.Ref.Target.Parent
			e.walkTo(target, sr, joinPath(pathSegs), exported)
			cur = target
		}
	}
}

// walkTo marks target reachable via sr at the given path and guards
// against revisiting the same struct in one traversal, per spec.md §4.3's
// defensiveness note on cycles.
func (e *engine) walkTo(target *ortschema.Struct, sr *ortschema.Search, path string, exported bool) {
	if e.visited[target] {
		return
	}
	e.visited[target] = true
	e.markReachable(target, AccessFrom{Search: sr, Path: path, Exported: exported})
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

func findField(s *ortschema.Struct, name string) *ortschema.Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (e *engine) structAccess(s *ortschema.Struct) StructAccess {
	sa := StructAccess{Struct: s}
	if list, ok := e.reached[s]; ok {
		sa.AccessFrom = *list
		for _, af := range sa.AccessFrom {
			if af.Exported {
				sa.Exportable = true
				break
			}
		}
	}
	if s.Insert != nil && e.grants(s.Insert.Rolemap) {
		sa.InsertSymbol = InsertSymbol(s)
	}
	for _, u := range s.Updates() {
		if e.grants(u.Rolemap) {
			sa.UpdateSymbols = append(sa.UpdateSymbols, UpdateSymbol(u))
		}
	}
	for _, u := range s.Deletes() {
		if e.grants(u.Rolemap) {
			sa.DeleteSymbols = append(sa.DeleteSymbols, UpdateSymbol(u))
		}
	}
	for _, sr := range s.Searches(ortschema.Iterate) {
		if e.grants(sr.Rolemap) {
			sa.IterateSymbols = append(sa.IterateSymbols, SearchSymbol(sr))
		}
	}
	for _, sr := range s.Searches(ortschema.List) {
		if e.grants(sr.Rolemap) {
			sa.ListSymbols = append(sa.ListSymbols, SearchSymbol(sr))
		}
	}
	for _, sr := range s.Searches(ortschema.Get) {
		if e.grants(sr.Rolemap) {
			sa.SearchSymbols = append(sa.SearchSymbols, SearchSymbol(sr))
		}
	}
	// count-kind searches carry no slot of their own in the per-struct
	// access object (spec.md §4.4's shape has iterates/lists/searches only);
	// they still appear in the top-level functions/fields tables via the
	// loops in run().
	return sa
}

// fieldExported implements spec.md §4.3 point 4's deny-list rolemap
// semantics (see DESIGN.md's Open Question decision): f is exported unless
// its type is password, its flags include noexport, or its rolemap grants
// the current role (a grant on a field rolemap means "excluded").
func (e *engine) fieldExported(f *ortschema.Field) bool {
	if f.Type == ortschema.Password {
		return false
	}
	if f.Flags.Has(ortschema.FlagNoExport) {
		return false
	}
	if f.Rolemap != nil && e.grants(f.Rolemap) {
		return false
	}
	return true
}
