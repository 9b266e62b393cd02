package chart

import (
	"sort"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

// Node is one account with its computed children, each level sorted by code.
type Node struct {
	model.Account
	Children []*Node
}

// BuildTree nests a flat account slice into a forest ordered by code. The
// result is stable regardless of input order. Accounts whose parent is missing
// from the input are treated as roots rather than dropped.
func BuildTree(accounts []model.Account) []*Node {
	nodes := make(map[int64]*Node, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &Node{Account: a}
	}

	var roots []*Node
	for _, a := range accounts {
		n := nodes[a.ID]
		if parent, ok := nodes[a.ParentID]; ok && a.ParentID != a.ID {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
	}

	var sortNodes func(ns []*Node)
	sortNodes = func(ns []*Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].Code < ns[j].Code })
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}

func sortByCode(accounts []model.Account) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
}
