// Package chart maintains the chart of accounts: a flat id-indexed arena of
// main/sub accounts plus account groups. Children are computed on demand,
// never stored, so a misconfigured parent reference cannot corrupt the tree.
package chart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerline-dev/ledgerline/internal/model"
)

var (
	// ErrAccountNotFound means the referenced account id does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrParentNotFound means the referenced parent account does not exist.
	ErrParentNotFound = errors.New("parent account not found")
	// ErrInvalidLevelCombination means the level/parent pairing is not allowed.
	ErrInvalidLevelCombination = errors.New("invalid level combination")
	// ErrCycleDetected means a reparent would make the account its own ancestor.
	ErrCycleDetected = errors.New("reparent would create a cycle")
	// ErrGroupNotFound means the referenced account group does not exist.
	ErrGroupNotFound = errors.New("account group not found")
	// ErrDuplicateCode means the account code is already taken.
	ErrDuplicateCode = errors.New("duplicate account code")
	// ErrNotPostable means the account is a main account and cannot take legs.
	ErrNotPostable = errors.New("account is not postable")
)

// Service owns the account and group arenas.
type Service struct {
	mu       sync.RWMutex
	accounts map[int64]model.Account
	byCode   map[string]int64
	groups   map[int64]model.AccountGroup
	nextID   int64
	nextGrp  int64
}

// NewService creates a Service seeded with the given accounts and groups.
func NewService(accounts []model.Account, groups []model.AccountGroup) *Service {
	s := &Service{
		accounts: make(map[int64]model.Account, len(accounts)),
		byCode:   make(map[string]int64, len(accounts)),
		groups:   make(map[int64]model.AccountGroup, len(groups)),
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
		s.byCode[a.Code] = a.ID
		if a.ID > s.nextID {
			s.nextID = a.ID
		}
	}
	for _, g := range groups {
		s.groups[g.ID] = g
		if g.ID > s.nextGrp {
			s.nextGrp = g.ID
		}
	}
	return s
}

// CreateParams holds the fields needed to create an account.
type CreateParams struct {
	NameAr   string
	NameEn   string
	Code     string
	ParentID int64
	Level    model.AccountLevel
	Nature   model.AccountNature
	GroupID  int64
}

// Create validates placement and adds a new account, returning its id.
// Sub accounts require an existing parent; main accounts may be roots or
// children of other main accounts.
func (s *Service) Create(p CreateParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.NameAr == "" && p.NameEn == "" {
		return 0, fmt.Errorf("%w: account name is required", ErrInvalidLevelCombination)
	}
	switch p.Level {
	case model.LevelSub:
		if p.ParentID == 0 {
			return 0, fmt.Errorf("%w: sub account requires a parent", ErrInvalidLevelCombination)
		}
	case model.LevelMain:
		// parent optional
	default:
		return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidLevelCombination, p.Level)
	}

	if p.ParentID != 0 {
		parent, ok := s.accounts[p.ParentID]
		if !ok {
			return 0, fmt.Errorf("%w: id %d", ErrParentNotFound, p.ParentID)
		}
		// Postings only land on leaves; anything under a sub account would
		// make that sub account an aggregate with stored balances.
		if parent.Level != model.LevelMain {
			return 0, fmt.Errorf("%w: parent %d is not a main account", ErrInvalidLevelCombination, p.ParentID)
		}
	}

	if p.GroupID != 0 {
		if _, ok := s.groups[p.GroupID]; !ok {
			return 0, fmt.Errorf("%w: id %d", ErrGroupNotFound, p.GroupID)
		}
	}

	code := p.Code
	if code == "" {
		code = s.nextCodeLocked(p.ParentID)
	}
	if _, taken := s.byCode[code]; taken {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateCode, code)
	}

	s.nextID++
	a := model.Account{
		ID:       s.nextID,
		Code:     code,
		NameAr:   p.NameAr,
		NameEn:   p.NameEn,
		ParentID: p.ParentID,
		Level:    p.Level,
		Nature:   p.Nature,
		GroupID:  p.GroupID,
	}
	s.accounts[a.ID] = a
	s.byCode[a.Code] = a.ID
	return a.ID, nil
}

// Reparent moves an account under a new parent. It walks the ancestors of the
// new parent and rejects the move if the account itself appears there.
func (s *Service) Reparent(accountID, newParentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrAccountNotFound, accountID)
	}
	if newParentID == 0 {
		if a.Level == model.LevelSub {
			return fmt.Errorf("%w: sub account requires a parent", ErrInvalidLevelCombination)
		}
		a.ParentID = 0
		s.accounts[accountID] = a
		return nil
	}

	parent, ok := s.accounts[newParentID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrParentNotFound, newParentID)
	}
	if parent.Level != model.LevelMain {
		return fmt.Errorf("%w: parent %d is not a main account", ErrInvalidLevelCombination, newParentID)
	}

	// Ancestor walk from the new parent. The visited set guards against a
	// pre-existing cycle in stored data looping forever.
	visited := make(map[int64]bool)
	for cur := newParentID; cur != 0; {
		if cur == accountID {
			return fmt.Errorf("%w: account %d is an ancestor of %d", ErrCycleDetected, accountID, newParentID)
		}
		if visited[cur] {
			break
		}
		visited[cur] = true
		cur = s.accounts[cur].ParentID
	}

	a.ParentID = newParentID
	s.accounts[accountID] = a
	return nil
}

// Rename updates the account's names.
func (s *Service) Rename(accountID int64, nameAr, nameEn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrAccountNotFound, accountID)
	}
	if nameAr == "" && nameEn == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalidLevelCombination)
	}
	a.NameAr = nameAr
	a.NameEn = nameEn
	s.accounts[accountID] = a
	return nil
}

// Get returns an account by id.
func (s *Service) Get(id int64) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

// All returns every account, in unspecified order.
func (s *Service) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out
}

// Exists reports whether an account id exists.
func (s *Service) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[id]
	return ok
}

// IsPostable reports whether the account may receive legs (sub accounts only).
func (s *Service) IsPostable(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return ok && a.Postable()
}

// SubAccountsOf returns every postable account under the given main account,
// walking computed children to any depth. Passing a sub account id returns
// just that account.
func (s *Service) SubAccountsOf(mainID int64) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.accounts[mainID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrAccountNotFound, mainID)
	}
	if root.Postable() {
		return []model.Account{root}, nil
	}

	children := make(map[int64][]model.Account, len(s.accounts))
	for _, a := range s.accounts {
		if a.ParentID != 0 {
			children[a.ParentID] = append(children[a.ParentID], a)
		}
	}

	var subs []model.Account
	stack := []int64{mainID}
	seen := map[int64]bool{mainID: true}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if c.Postable() {
				subs = append(subs, c)
			} else {
				stack = append(stack, c.ID)
			}
		}
	}
	sortByCode(subs)
	return subs, nil
}

// GroupAccounts returns every postable account belonging to the group.
func (s *Service) GroupAccounts(groupID int64) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, fmt.Errorf("%w: id %d", ErrGroupNotFound, groupID)
	}
	var out []model.Account
	for _, a := range s.accounts {
		if a.GroupID == groupID && a.Postable() {
			out = append(out, a)
		}
	}
	sortByCode(out)
	return out, nil
}

// CreateGroup adds an account group and returns its id.
func (s *Service) CreateGroup(code, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return 0, fmt.Errorf("%w: group name is required", ErrInvalidLevelCombination)
	}
	s.nextGrp++
	g := model.AccountGroup{ID: s.nextGrp, Code: code, Name: name}
	s.groups[g.ID] = g
	return g.ID, nil
}

// Group returns a group by id.
func (s *Service) Group(id int64) (model.AccountGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

// Groups returns every account group.
func (s *Service) Groups() []model.AccountGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AccountGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out
}

// nextCodeLocked derives a code for a new child of parentID: the parent's code
// plus a two-digit sibling sequence ("11" -> "1101"). Roots get single digits.
func (s *Service) nextCodeLocked(parentID int64) string {
	prefix := ""
	if parentID != 0 {
		prefix = s.accounts[parentID].Code
	}
	siblings := 0
	for _, a := range s.accounts {
		if a.ParentID == parentID {
			siblings++
		}
	}
	for {
		var code string
		if prefix == "" {
			code = fmt.Sprintf("%d", siblings+1)
		} else {
			code = fmt.Sprintf("%s%02d", prefix, siblings+1)
		}
		if _, taken := s.byCode[code]; !taken {
			return code
		}
		siblings++
	}
}
