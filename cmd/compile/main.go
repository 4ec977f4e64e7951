// Command compile is the `compile` tool of spec.md §6: it parses one ort
// schema (standard input if none given) and, depending on flags, emits
// SQLite DDL (-s), a structural diff/migration against another schema
// (-d), or nothing beyond parse+link validation (-n).
//
// The C-header/source flags (-C, -c) of the original tool's CLI surface
// have no Go-native equivalent — spec.md §1 treats the CLI argument
// surface as out of scope beyond the interface the core needs, and ortc
// targets Go source, not a C header/source pair — so they are accepted for
// surface compatibility and reported as no-ops rather than silently
// ignored. The same holds for the -j/-v "extras" flags: spec.md names them
// but does not define their payload beyond the original tool's code
// generation, which is out of scope here.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/ortlang/ortc/config"
	"github.com/ortlang/ortc/core/parser"
	"github.com/ortlang/ortc/ddl"
	"github.com/ortlang/ortc/diff"
	"github.com/ortlang/ortc/migrate"
)

const (
	headerFlag   = "header"  // -C
	headerOfFlag = "source"  // -c <header>
	ddlFlag      = "ddl"     // -s
	diffFlag     = "diff"    // -d <config>
	noopFlag     = "noop"    // -n
	jsonFlag     = "json"    // -j
	validFlag    = "validators"
	destructFlag = "destruct"
	configFlag   = "config"
)

var compileFlags = map[string]cobraflags.Flag{
	headerFlag: &cobraflags.BoolFlag{
		Name:  headerFlag,
		Value: false,
		Usage: "emit a C header (no-op: not applicable to a Go target)",
	},
	headerOfFlag: &cobraflags.StringFlag{
		Name:  headerOfFlag,
		Value: "",
		Usage: "emit C source referencing the given header (no-op: not applicable to a Go target)",
	},
	ddlFlag: &cobraflags.BoolFlag{
		Name:  ddlFlag,
		Value: false,
		Usage: "emit SQLite DDL for the schema",
	},
	diffFlag: &cobraflags.StringFlag{
		Name:  diffFlag,
		Value: "",
		Usage: "structural diff/migration against the given ort schema (treated as the prior/from version)",
	},
	noopFlag: &cobraflags.BoolFlag{
		Name:  noopFlag,
		Value: false,
		Usage: "parse and link only, no output",
	},
	jsonFlag: &cobraflags.BoolFlag{
		Name:  jsonFlag,
		Value: false,
		Usage: "JSON extras (no-op: payload undefined beyond the original tool's code generation)",
	},
	validFlag: &cobraflags.BoolFlag{
		Name:  validFlag,
		Value: false,
		Usage: "validator extras (no-op: payload undefined beyond the original tool's code generation)",
	},
	destructFlag: &cobraflags.BoolFlag{
		Name:  destructFlag,
		Value: false,
		Usage: "treat table/column/enum/bitfield deletions as safe migrations",
	},
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "path to an optional .ortc project config file",
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile [config]",
	Short: "Compile an ort schema to DDL, or diff it against another schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	if compileFlags[headerFlag].GetBool() || compileFlags[headerOfFlag].GetString() != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "compile: -C/-c are no-ops in this Go build (see cmd/compile doc comment)")
	}
	if compileFlags[jsonFlag].GetBool() || compileFlags[validFlag].GetBool() {
		fmt.Fprintln(cmd.ErrOrStderr(), "compile: -j/-v are no-ops in this Go build (see cmd/compile doc comment)")
	}

	opts, err := config.LoadProjectConfig(compileFlags[configFlag].GetString())
	if err != nil {
		return err
	}
	if compileFlags[destructFlag].GetBool() {
		opts.Destruct = true
	}

	name, data, err := readSource(args)
	if err != nil {
		return err
	}
	cfg, err := parser.Parse(string(data), name)
	if err != nil {
		return fmt.Errorf("compile: %s: %w", name, err)
	}

	if compileFlags[noopFlag].GetBool() {
		return nil
	}

	wroteSomething := false

	if compileFlags[ddlFlag].GetBool() {
		fmt.Fprint(cmd.OutOrStdout(), ddl.Emit(cfg, ddl.Options{Comments: opts.Comments}))
		wroteSomething = true
	}

	if fromPath := compileFlags[diffFlag].GetString(); fromPath != "" {
		fromData, err := os.ReadFile(fromPath)
		if err != nil {
			return fmt.Errorf("compile: reading %s: %w", fromPath, err)
		}
		fromCfg, err := parser.Parse(string(fromData), fromPath)
		if err != nil {
			return fmt.Errorf("compile: %s: %w", fromPath, err)
		}

		recs := diff.Compare(fromCfg, cfg)
		result := migrate.Validate(recs, migrate.Options{Destruct: opts.Destruct})
		if !result.Ok() {
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("compile: migration validation failed with %d error(s)", len(result.Errors))
		}
		fmt.Fprint(cmd.OutOrStdout(), result.DDL)
		wroteSomething = true
	}

	if !wroteSomething {
		return fmt.Errorf("compile: nothing to do (pass -s, -d, or -n)")
	}
	return nil
}

func readSource(args []string) (name string, data []byte, err error) {
	if len(args) == 0 {
		data, err = io.ReadAll(os.Stdin)
		return "<stdin>", data, err
	}
	data, err = os.ReadFile(args[0])
	return args[0], data, err
}

func main() {
	cobraflags.RegisterMap(compileCmd, compileFlags)
	if f := compileCmd.Flags().Lookup(headerFlag); f != nil {
		f.Shorthand = "C"
	}
	if f := compileCmd.Flags().Lookup(headerOfFlag); f != nil {
		f.Shorthand = "c"
	}
	if f := compileCmd.Flags().Lookup(ddlFlag); f != nil {
		f.Shorthand = "s"
	}
	if f := compileCmd.Flags().Lookup(diffFlag); f != nil {
		f.Shorthand = "d"
	}
	if f := compileCmd.Flags().Lookup(noopFlag); f != nil {
		f.Shorthand = "n"
	}
	if f := compileCmd.Flags().Lookup(jsonFlag); f != nil {
		f.Shorthand = "j"
	}
	if f := compileCmd.Flags().Lookup(validFlag); f != nil {
		f.Shorthand = "v"
	}

	if err := compileCmd.Execute(); err != nil {
		os.Exit(1) //revive:disable-line:deep-exit
	}
}
