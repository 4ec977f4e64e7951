// Command auditcli is the `audit` tool of spec.md §6: it reads one or more
// ort schema files (or standard input if none are given), computes the
// audit report for a chosen role, and writes the script-embedded JSON to
// standard output.
//
// Flag registration follows the teacher's cmd/generate.go idiom: a
// package-level cobraflags.Flag map registered on the command with
// cobraflags.RegisterMap.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/ortlang/ortc/audit"
	"github.com/ortlang/ortc/audit/emitter"
	"github.com/ortlang/ortc/core/parser"
)

const roleFlag = "role"

var auditFlags = map[string]cobraflags.Flag{
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: "default",
		Usage: "role to compute the audit report for",
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [config...]",
	Short: "Compute an audit report for a role over one or more ort schemas",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	role := auditFlags[roleFlag].GetString()

	sources, err := openSources(args)
	if err != nil {
		return err
	}
	defer closeAll(sources)

	failed := false
	for _, src := range sources {
		data, err := io.ReadAll(src.r)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", src.name, err)
			failed = true
			continue
		}

		cfg, err := parser.Parse(string(data), src.name)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: parser error: %s\n", src.name, err)
			failed = true
			continue
		}

		report, err := audit.Run(cfg, role)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", src.name, err)
			failed = true
			continue
		}

		fmt.Fprint(cmd.OutOrStdout(), emitter.Emit(report))
	}

	if failed {
		return fmt.Errorf("audit: one or more sources failed")
	}
	return nil
}

type source struct {
	name string
	r    io.ReadCloser
}

func openSources(args []string) ([]source, error) {
	if len(args) == 0 {
		return []source{{name: "<stdin>", r: io.NopCloser(os.Stdin)}}, nil
	}
	out := make([]source, 0, len(args))
	for _, a := range args {
		f, err := os.Open(a)
		if err != nil {
			return nil, fmt.Errorf("audit: opening %s: %w", a, err)
		}
		out = append(out, source{name: a, r: f})
	}
	return out, nil
}

func closeAll(sources []source) {
	for _, s := range sources {
		s.r.Close()
	}
}

func main() {
	cobraflags.RegisterMap(auditCmd, auditFlags)
	if f := auditCmd.Flags().Lookup(roleFlag); f != nil {
		f.Shorthand = "r"
	}
	if err := auditCmd.Execute(); err != nil {
		os.Exit(1) //revive:disable-line:deep-exit
	}
}
