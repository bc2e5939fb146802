package analyze

import (
	"sort"
	"strings"
)

// String lists the surface package by package:
//
//	package tasks // example.com/bindings/tasks
//	  func NewTask(ctx context.Context, rt *bindrt.Runtime, title string) (*Task, error)
//	  wrapper Task
//	    Len(ctx context.Context) (int, error)
func (s *Surface) String() string {
	var b strings.Builder

	paths := make([]string, 0, len(s.Packages))
	for p := range s.Packages {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	for i, p := range paths {
		if i > 0 {
			b.WriteString("\n")
		}

		s.writePackage(&b, s.Packages[p])
	}

	return b.String()
}

func (s *Surface) writePackage(b *strings.Builder, pkg *PackageInfo) {
	b.WriteString("package " + pkg.Name + " // " + pkg.Path + "\n")

	for _, f := range pkg.Funcs {
		b.WriteString("  func " + f.Name + f.Signature + "\n")
	}

	ids := append([]TypeID(nil), pkg.Types...)
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Name < ids[j].Name
	})

	for _, id := range ids {
		t := s.Types[id]
		b.WriteString("  " + t.Kind.String() + " " + id.Name + "\n")

		for _, m := range t.Methods {
			b.WriteString("    " + m.Name + m.Signature + "\n")
		}
	}
}

// WithoutContext returns the methods of t without a leading context parameter,
// other than those every value type may carry.
func (t *TypeInfo) WithoutContext() []string {
	var out []string

	for _, m := range t.Methods {
		if m.Context || m.Name == "String" || strings.HasSuffix(m.Name, "View") || m.Name == "Iter" {
			continue
		}

		out = append(out, m.Name)
	}

	return out
}
