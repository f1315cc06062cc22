// Package planner turns a company into an ordered list of web-search queries.
package planner

import (
	"fmt"
	"strings"

	"github.com/FranksOps/leadscout/internal/model"
)

// Queries returns search queries for c, most targeted first. Every query
// quotes the company name.
func Queries(c model.Company) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	c = c.Normalize()
	name := fmt.Sprintf("%q", c.Name)

	candidates := []string{
		name + " CEO CFO executives",
		name + " leadership team",
		name + " chief officer appointed",
		join(name, c.Industry, "executives", c.City),
		join(name, c.Country, "board of directors management"),
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, q := range candidates {
		k := strings.ToLower(q)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
