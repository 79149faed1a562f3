package ops

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	gen := &cobra.Command{Use: "generate", Short: "Generate an SBOM"}
	ver := &cobra.Command{Use: "version"}
	if err := r.Register(GroupReport, gen, ""); err != nil {
		t.Fatalf("Register(generate) failed: %v", err)
	}
	if err := r.Register(GroupSupport, ver, "Show version"); err != nil {
		t.Fatalf("Register(version) failed: %v", err)
	}
	return r
}

func TestRegistry_RegisterAndGroup(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.Register(GroupSupport, &cobra.Command{Use: "version"}, ""); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	reg, ok := r.GetCommand("generate")
	if !ok {
		t.Fatal("generate not found")
	}
	if reg.Description != "Generate an SBOM" {
		t.Errorf("description should default to Short, got %q", reg.Description)
	}

	support := r.GetCommandsByGroup(GroupSupport)
	if len(support) != 1 || support[0].Name != "version" {
		t.Errorf("unexpected support commands: %+v", support)
	}
	if got := r.GetCommandsByGroup(CommandGroup("missing")); len(got) != 0 {
		t.Errorf("expected no commands, got %d", len(got))
	}
}

func TestRegistry_SectionsFollowGroupOrder(t *testing.T) {
	sections := newTestRegistry(t).Sections()
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Group != GroupReport || sections[1].Group != GroupSupport {
		t.Errorf("unexpected order: %s, %s", sections[0].Group, sections[1].Group)
	}

	if got := NewRegistry().Sections(); len(got) != 0 {
		t.Errorf("empty registry produced %d sections", len(got))
	}
}

func TestRegistry_WriteHelp(t *testing.T) {
	var buf bytes.Buffer
	newTestRegistry(t).WriteHelp(&buf)

	out := buf.String()
	report := strings.Index(out, "Report Commands:")
	support := strings.Index(out, "Support Commands:")
	if report < 0 || support < 0 || report > support {
		t.Fatalf("unexpected help layout:\n%s", out)
	}
	if !strings.Contains(out, "  generate     Generate an SBOM\n") {
		t.Errorf("generate row not aligned:\n%s", out)
	}
	if CommandGroup("extra").Title() != "extra" {
		t.Error("unknown groups should title as their raw name")
	}
}
