package parser_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/internal/filetest"
	"github.com/pinsolve/pinsolve/parser"
	"github.com/stretchr/testify/require"
)

// TestParserGolden drives every constraint program under testdata/in
// through parser.Parse and diffs ast.Fprint's dump of the resulting AST
// against testdata/out, the way nenuphar's lang/parser drives its own
// fixtures through the scanner/parser with internal/filetest.
func TestParserGolden(t *testing.T) {
	updateTests := false
	srcDir, resultDir := filepath.Join("..", "testdata", "in"), filepath.Join("..", "testdata", "out")
	for _, fi := range filetest.SourceFiles(t, srcDir, ".pin") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			var errs diag.List
			prog := parser.Parse(src, &errs)

			var out string
			if errs.Len() > 0 {
				var b strings.Builder
				for _, d := range errs.Items() {
					fmt.Fprintf(&b, "%s\n", d.String())
				}
				out = b.String()
			} else {
				var b strings.Builder
				require.NoError(t, ast.Fprint(&b, prog))
				out = b.String()
			}
			filetest.DiffOutput(t, fi, out, resultDir, &updateTests)
		})
	}
}
