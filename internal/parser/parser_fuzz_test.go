package parser

import (
	"errors"
	"strings"
	"testing"
)

func FuzzParse(f *testing.F) {
	f.Add("ls -la")
	f.Add("sort < in.txt > out.txt &")
	f.Add("echo a & b &")
	f.Add("cat <")
	f.Add("# comment")
	f.Add("")
	f.Fuzz(func(t *testing.T, line string) {
		cmd, err := Parse(line)
		if err != nil {
			if !errors.Is(err, ErrMissingTarget) {
				t.Fatalf("unexpected error %v for %q", err, line)
			}
			return
		}
		if cmd.Empty() {
			if len(strings.Fields(line)) != 0 {
				t.Fatalf("empty command for non-blank line %q", line)
			}
			return
		}
		if len(cmd.Args) == 0 || cmd.Args[0] != cmd.Program {
			t.Fatalf("args %q do not start with program %q", cmd.Args, cmd.Program)
		}
		fields := strings.Fields(line)
		if cmd.Background && fields[len(fields)-1] != "&" {
			t.Fatalf("background set without trailing & in %q", line)
		}
	})
}
