package wordtrie

// Groups maps a group name to the ordered list of member names. Member order
// follows traversal order; duplicates from the input are preserved.
type Groups map[string][]string

// GroupNames builds a trie from the given names and groups them by their
// longest common whole-word prefix. This is the convenience entry point;
// callers that need the tree itself should use FromNames and Trie.GroupNames.
func GroupNames(names []string, delimiter string) (Groups, error) {
	t, err := FromNames(names, delimiter)
	if err != nil {
		return nil, err
	}
	return t.GroupNames(), nil
}

// A branch is the sequence of full-name nodes encountered along one
// non-branching chain. Grouping decisions count each node once, no matter how
// often its name was inserted; duplicates are expanded only when members are
// emitted.
type branch []*Node

// GroupNames walks the trie bottom-up and clusters the inserted names.
//
// At every branching point, branch-sequences collected from the child
// subtrees are resolved: a sequence with more than one full name is absorbed
// immediately under its shallowest name, and what remains is either claimed
// by the branching node itself or handed further up. Names that reach the
// root unresolved share no whole-word prefix with any sibling and become
// singleton groups named after themselves.
func (t *Trie) GroupNames() Groups {
	groups := make(Groups)

	// The root is always a resolution point, even when it has a single
	// child: a chain with no branching below the root must still drain
	// into the result.
	sub := make([]branch, 0, len(t.root.order))
	for _, child := range t.root.Children() {
		sub = append(sub, collect(child, groups)...)
	}
	for _, b := range absorb(sub, groups) {
		for _, n := range b {
			groups[n.Text] = appendMember(groups[n.Text], n)
		}
	}

	return groups
}

// collect resolves the subtree rooted at n and records every group that can
// be decided within it. It returns the branch-sequences that could not be
// resolved below n, to be settled at the nearest ancestor branching point.
func collect(n *Node, groups Groups) []branch {
	// Walk the non-branching chain, gathering the full names that
	// terminate on it. The chain ends at a leaf or at the next branching
	// point.
	var chain branch
	for !n.IsBranchingPoint() {
		if n.IsFullName() {
			chain = append(chain, n)
		}
		if n.IsLeaf() {
			return []branch{chain}
		}
		n = n.children[n.order[0]]
	}

	sub := make([]branch, 0, len(n.order))
	for _, child := range n.Children() {
		sub = append(sub, collect(child, groups)...)
	}
	remaining := absorb(sub, groups)

	if n.IsFullName() || len(remaining) > 1 {
		// The branching point anchors a group: its own name, when it is
		// one, lists first, followed by the leftover names in visit order.
		members := groups[n.Text]
		members = appendMember(members, n)
		for _, b := range remaining {
			for _, m := range b {
				members = appendMember(members, m)
			}
		}
		groups[n.Text] = members

		// Names on the chain above this node are not under its prefix;
		// they stay unresolved.
		if len(chain) == 0 {
			return nil
		}
		return []branch{chain}
	}

	// No decision possible here: defer the leftover branch-sequence, along
	// with the chain above this node, to an ancestor branching point.
	if len(chain) > 0 {
		remaining = append(remaining, chain)
	}
	return remaining
}

// absorb resolves every branch-sequence holding more than one full name: the
// shallowest name becomes the group name and the whole sequence its member
// list. Sequences are processed last-visited-first, matching the order the
// traversal discovered them. The surviving sequences, each carrying at most
// one full name, are returned in their original visit order.
func absorb(sub []branch, groups Groups) []branch {
	for i := len(sub) - 1; i >= 0; i-- {
		if len(sub[i]) > 1 {
			name := sub[i][0].Text
			members := groups[name]
			for _, n := range sub[i] {
				members = appendMember(members, n)
			}
			groups[name] = members
		}
	}

	remaining := make([]branch, 0, len(sub))
	for _, b := range sub {
		if len(b) == 1 {
			remaining = append(remaining, b)
		}
	}
	return remaining
}

// appendMember emits the node's name once per time it was inserted, so
// duplicated inputs reappear as repeated members.
func appendMember(members []string, n *Node) []string {
	for i := 0; i < n.NameCount; i++ {
		members = append(members, n.Text)
	}
	return members
}
