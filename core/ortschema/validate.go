package ortschema

import "fmt"

// Validate checks the invariants spec.md §3 requires to hold after
// parse+link, before any emitter runs. The linker in core/parser calls it
// as its last step; audit, ddl, diff and migrate do not call it, so a
// hand-built Config (as in tests) is checked only when the caller invokes
// Validate itself.
func (c *Config) Validate() error {
	seenStruct := make(map[string]bool, len(c.Structs))
	for _, s := range c.Structs {
		if seenStruct[s.Name] {
			return fmt.Errorf("ortschema: duplicate struct name %q", s.Name)
		}
		seenStruct[s.Name] = true
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, e := range c.Enums {
		if err := e.validate(); err != nil {
			return err
		}
	}
	for _, b := range c.Bitfields {
		if err := b.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Struct) validate() error {
	seenField := make(map[string]bool, len(s.Fields))
	rowids := 0
	for _, f := range s.Fields {
		if seenField[f.Name] {
			return fmt.Errorf("ortschema: duplicate field name %s.%s", s.Name, f.Name)
		}
		seenField[f.Name] = true

		if f.Flags.Has(FlagRowid) {
			rowids++
		}

		switch f.Type {
		case StructType:
			if f.Ref == nil {
				return fmt.Errorf("ortschema: struct-typed field %s.%s has no reference", s.Name, f.Name)
			}
		default:
			if f.Ref != nil {
				if !f.Ref.Target.Flags.Has(FlagRowid) {
					return fmt.Errorf("ortschema: field %s.%s reference target is not a rowid", s.Name, f.Name)
				}
				if f.Ref.Target.Parent == s {
					return fmt.Errorf("ortschema: field %s.%s references its own struct", s.Name, f.Name)
				}
			}
		}

		if f.Type == EnumType && f.Enum == nil {
			return fmt.Errorf("ortschema: enum-typed field %s.%s has no enum reference", s.Name, f.Name)
		}
		if f.Type == BitfieldType && f.Bitfield == nil {
			return fmt.Errorf("ortschema: bitfield-typed field %s.%s has no bitfield reference", s.Name, f.Name)
		}
	}
	if rowids > 1 {
		return fmt.Errorf("ortschema: struct %s declares more than one rowid field", s.Name)
	}
	return nil
}

func (e *Enum) validate() error {
	seen := make(map[int64]bool, len(e.Items))
	for _, it := range e.Items {
		if seen[it.Value] {
			return fmt.Errorf("ortschema: enum %s has duplicate value %d", e.Name, it.Value)
		}
		seen[it.Value] = true
	}
	return nil
}

func (b *Bitfield) validate() error {
	seen := make(map[int64]bool, len(b.Items))
	for _, it := range b.Items {
		if seen[it.Index] {
			return fmt.Errorf("ortschema: bitfield %s has duplicate bit index %d", b.Name, it.Index)
		}
		seen[it.Index] = true
	}
	return nil
}
