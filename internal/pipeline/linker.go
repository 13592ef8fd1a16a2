// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"sort"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// unionFind is a plain disjoint-set over evidence indices with path
// compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[rj] = ri
	}
}

// evidenceEntities pairs an evidence ID with its extracted entities.
type evidenceEntities struct {
	id       string
	entities types.Entities
}

// link groups evidence units that mention at least one common entity.
// Paragraph annotations are reused when present; equations and unannotated
// paragraphs go through the extractor. Two units sharing any variable or
// concept end up in the same group, transitively. A group's shared entities
// are those occurring in at least two of its members, not necessarily in all
// of them. Member IDs and shared entities are sorted, and singleton groups
// are omitted.
func link(paragraphs []*types.Paragraph, equations []*types.Equation, extract ExtractorFunc) []types.LinkedGroup {
	var units []evidenceEntities
	for _, p := range paragraphs {
		if p.Entities != nil {
			units = append(units, evidenceEntities{id: p.ID, entities: *p.Entities})
		} else {
			units = append(units, evidenceEntities{id: p.ID, entities: extract(p.Text)})
		}
	}
	for _, eq := range equations {
		units = append(units, evidenceEntities{id: eq.ID, entities: extract(eq.EquationText)})
	}
	if len(units) < 2 {
		return nil
	}

	varOwners := make(map[string][]int)
	conceptOwners := make(map[string][]int)
	for i, u := range units {
		for _, v := range u.entities.Variables {
			varOwners[v] = append(varOwners[v], i)
		}
		for _, c := range u.entities.Concepts {
			conceptOwners[c] = append(conceptOwners[c], i)
		}
	}

	uf := newUnionFind(len(units))
	for _, owners := range varOwners {
		for _, i := range owners[1:] {
			uf.union(owners[0], i)
		}
	}
	for _, owners := range conceptOwners {
		for _, i := range owners[1:] {
			uf.union(owners[0], i)
		}
	}

	components := make(map[int][]int)
	for i := range units {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var groups []types.LinkedGroup
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		inGroup := make(map[int]bool, len(members))
		for _, i := range members {
			inGroup[i] = true
		}

		var ids []string
		for _, i := range members {
			ids = append(ids, units[i].id)
		}
		sort.Strings(ids)

		groups = append(groups, types.LinkedGroup{
			SourceIDs:       ids,
			SharedVariables: sharedEntities(varOwners, inGroup),
			SharedConcepts:  sharedEntities(conceptOwners, inGroup),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].SourceIDs[0] < groups[j].SourceIDs[0]
	})
	return groups
}

// sharedEntities returns, sorted, the entities held by two or more group
// members.
func sharedEntities(owners map[string][]int, inGroup map[int]bool) []string {
	var shared []string
	for entity, holders := range owners {
		count := 0
		for _, i := range holders {
			if inGroup[i] {
				count++
			}
		}
		if count >= 2 {
			shared = append(shared, entity)
		}
	}
	sort.Strings(shared)
	return shared
}
