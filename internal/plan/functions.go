package plan

import (
	"bindgen/internal/decl"
	"bindgen/internal/diagnostic"
	"bindgen/internal/match"
)

// resolveUnit collects the plans of one unit and resolves its free
// functions.
func (r *Resolver) resolveUnit(u *decl.Unit) *UnitPlan {
	r.unit = u.Name
	defer func() { r.unit = "" }()

	up := &UnitPlan{Unit: u, Enums: r.enums.ForUnit(u.Name)}

	for _, c := range r.order {
		if p := r.plans[c]; p != nil && c.Unit == u.Name {
			up.Classes = append(up.Classes, p)
		}
	}

	up.Functions = r.resolveFunctions(u)

	return up
}

func (r *Resolver) resolveFunctions(u *decl.Unit) []*Group {
	var (
		groups = map[string]*Group{}
		names  []string
		counts = map[string]int{}
	)

	for _, f := range u.Functions {
		symbol := decl.JoinQualified(f.Scope, f.Name)
		index := counts[symbol]
		counts[symbol]++

		if f.Directives.Ignore {
			r.diags.AddInfo(diagnostic.CodeIgnoredDecl, "function ignored", symbol, f.Pos)
			continue
		}

		exposed := exposedName(f.Name, f.Directives)
		goName := match.Exported(exposed)
		scope := []string(f.Scope)

		if owner := f.Directives.AttachToOwner; owner != "" {
			c, ok := r.findClass(owner, f.Scope)
			if !ok {
				r.fail(u.Name, &diagnostic.UnresolvedTypeError{
					Type:        owner,
					Name:        owner,
					Reason:      "attach-to-owner names no class",
					Decl:        symbol,
					Location:    f.Pos,
					Suggestions: match.Suggest(owner, r.knownNames(), r.config.MaxSuggestions),
				})

				continue
			}

			goName = c.Symbol + goName
			scope = c.Scope()
		}

		cp, err := r.resolveCallable(nil, f, scope, symbol, index)
		if err != nil {
			r.fail(u.Name, locate(err, f.Signature(), f.Pos))
			continue
		}

		r.hazards(symbol, cp)

		g, ok := groups[goName]
		if !ok {
			g = &Group{Name: f.Name, GoName: goName}
			groups[goName] = g
			names = append(names, goName)

			r.claimSymbol(u, goName, "function "+decl.JoinQualified(f.Scope, exposed), f.Pos)
		}

		g.Overloads = append(g.Overloads, cp)
	}

	out := make([]*Group, 0, len(names))

	for _, n := range names {
		r.checkGroup(nil, groups[n])
		out = append(out, groups[n])
	}

	return out
}
