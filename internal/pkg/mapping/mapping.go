// Package mapping resolves the funding wallet for a job's user/group
// identity by walking administrative mapping edges: user->wallet edges
// override everything, otherwise group->group edges are followed to the
// first group holding a group->wallet edge.
package mapping

import (
	"errors"
	"fmt"
	"sort"

	"saber/internal/pkg/model"
)

// ErrNoMapping reports that neither the user nor any reachable group maps to
// a wallet. The orchestrator routes such jobs to the fallback wallet and
// records an attribution gap.
var ErrNoMapping = errors.New("no wallet mapping")

// CycleError reports a group chain that transitively maps back to itself.
type CycleError struct {
	Group string
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("mapping cycle at group %q (chain %v)", e.Group, e.Chain)
}

// DepthError reports a group chain longer than the configured bound.
type DepthError struct {
	Start string
	Max   int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("mapping chain from group %q exceeds depth %d", e.Start, e.Max)
}

// AmbiguousError reports several equal-priority candidate targets where
// exactly one is required. Misattribution has billing consequences, so ties
// fail instead of picking silently.
type AmbiguousError struct {
	Group   string
	Targets []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous mapping at group %q: %v", e.Group, e.Targets)
}

type edge struct {
	target   string
	priority int
}

// Snapshot is an immutable view of the mapping graph, loaded once before a
// batch run. Administrative edits take effect on the next run only, so
// attribution within one run is deterministic.
type Snapshot struct {
	userWallet  map[string]edge
	groupWallet map[string][]edge
	groupParent map[string][]edge
	maxDepth    int
}

// NewSnapshot indexes mapping edges into a resolvable snapshot. Edges with
// unknown kind combinations are ignored; a duplicate user->wallet edge for
// the same user keeps the higher priority one.
func NewSnapshot(edges model.MappingEdges, maxDepth int) *Snapshot {
	if maxDepth <= 0 {
		maxDepth = 16
	}
	s := &Snapshot{
		userWallet:  make(map[string]edge),
		groupWallet: make(map[string][]edge),
		groupParent: make(map[string][]edge),
		maxDepth:    maxDepth,
	}
	for _, e := range edges {
		switch {
		case e.SourceKind == model.KindUser && e.TargetKind == model.KindWallet:
			if prev, ok := s.userWallet[e.Source]; !ok || e.Priority > prev.priority {
				s.userWallet[e.Source] = edge{target: e.Target, priority: e.Priority}
			}
		case e.SourceKind == model.KindGroup && e.TargetKind == model.KindWallet:
			s.groupWallet[e.Source] = append(s.groupWallet[e.Source], edge{e.Target, e.Priority})
		case e.SourceKind == model.KindGroup && e.TargetKind == model.KindGroup:
			s.groupParent[e.Source] = append(s.groupParent[e.Source], edge{e.Target, e.Priority})
		}
	}
	return s
}

// Resolve returns the funding wallet for the given identities.
//
// Precedence: an explicit user->wallet edge wins immediately. Otherwise the
// group chain is walked from groupID; the first group holding a direct
// group->wallet edge decides. Cycles, over-deep chains and equal-priority
// ties fail with typed errors; a fully unmapped identity fails ErrNoMapping.
func (s *Snapshot) Resolve(userID, groupID string) (string, error) {
	if e, ok := s.userWallet[userID]; ok {
		return e.target, nil
	}

	visited := make(map[string]bool, 4)
	chain := make([]string, 0, 4)
	group := groupID
	for depth := 0; group != ""; depth++ {
		if depth > s.maxDepth {
			return "", &DepthError{Start: groupID, Max: s.maxDepth}
		}
		if visited[group] {
			return "", &CycleError{Group: group, Chain: chain}
		}
		visited[group] = true
		chain = append(chain, group)

		if wallets, ok := s.groupWallet[group]; ok {
			target, err := pickOne(group, wallets)
			if err != nil {
				return "", err
			}
			return target, nil
		}

		parents, ok := s.groupParent[group]
		if !ok {
			break
		}
		next, err := pickOne(group, parents)
		if err != nil {
			return "", err
		}
		group = next
	}
	return "", ErrNoMapping
}

// pickOne selects the single highest-priority target, failing on an
// equal-priority tie between distinct targets.
func pickOne(group string, edges []edge) (string, error) {
	best := edges[0]
	tied := []string{best.target}
	for _, e := range edges[1:] {
		switch {
		case e.priority > best.priority:
			best = e
			tied = tied[:0]
			tied = append(tied, e.target)
		case e.priority == best.priority && e.target != best.target:
			tied = append(tied, e.target)
		}
	}
	if len(tied) > 1 {
		sort.Strings(tied)
		return "", &AmbiguousError{Group: group, Targets: tied}
	}
	return best.target, nil
}

// GapReason labels a resolution error for reporting. Returns "" for nil.
func GapReason(err error) string {
	var ce *CycleError
	var de *DepthError
	var ae *AmbiguousError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoMapping):
		return "unmapped"
	case errors.As(err, &ce):
		return "cycle"
	case errors.As(err, &de):
		return "depth"
	case errors.As(err, &ae):
		return "ambiguous"
	default:
		return "unmapped"
	}
}
