package club

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound             = errors.New("club not found")
	ErrForbidden            = errors.New("not authorized to perform this modification")
	ErrUnsupportedOperation = errors.New("unsupported patch operation")
	ErrConflict             = errors.New("club already exists")
)

// PatchOperation is a single generic operation from a patch-style
// modification request.
type PatchOperation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ModificationKind discriminates the closed set of typed modifications.
type ModificationKind int

const (
	ModificationAddMember ModificationKind = iota
	ModificationRemoveMember
)

// Modification is a typed, authorizable mutation folded over a club.
type Modification struct {
	Kind   ModificationKind
	Member Member
}

// Apply authorizes and performs the modification against the club. A
// requestor may modify any member when admin, or only itself otherwise.
func (m Modification) Apply(requestor Contributor, c *Club) error {
	if !c.IsAdmin(requestor.ID) && requestor.ID != m.Member.ContributorID {
		return fmt.Errorf("%w: contributor %s", ErrForbidden, requestor.ID)
	}
	switch m.Kind {
	case ModificationAddMember:
		c.AddMember(m.Member)
	case ModificationRemoveMember:
		c.RemoveMember(m.Member)
	}
	return nil
}

// operationSpec declares the (op, path) pair a typed modification handles
// and how to build it from an operation value.
type operationSpec struct {
	supports func(op PatchOperation) bool
	build    func(op PatchOperation, requestor Contributor) (Modification, error)
}

var supportedOperations = []operationSpec{
	{
		supports: func(op PatchOperation) bool {
			return op.Op == "add" && op.Path == "/members/-"
		},
		build: func(op PatchOperation, requestor Contributor) (Modification, error) {
			member, err := memberFromValue(op.Value, requestor)
			if err != nil {
				return Modification{}, err
			}
			return Modification{Kind: ModificationAddMember, Member: member}, nil
		},
	},
	{
		supports: func(op PatchOperation) bool {
			return op.Op == "remove" && op.Path == "/members/-"
		},
		build: func(op PatchOperation, requestor Contributor) (Modification, error) {
			member, err := memberFromValue(op.Value, requestor)
			if err != nil {
				return Modification{}, err
			}
			return Modification{Kind: ModificationRemoveMember, Member: member}, nil
		},
	},
}

// MapModifications converts generic patch operations into typed
// modifications through the operation-spec registry. Operations no spec
// recognizes are a hard error.
func MapModifications(ops []PatchOperation, requestor Contributor) ([]Modification, error) {
	mods := make([]Modification, 0, len(ops))
	for _, op := range ops {
		spec, ok := findSpec(op)
		if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedOperation, op.Op, op.Path)
		}
		mod, err := spec.build(op, requestor)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func findSpec(op PatchOperation) (operationSpec, bool) {
	for _, spec := range supportedOperations {
		if spec.supports(op) {
			return spec, true
		}
	}
	return operationSpec{}, false
}

// memberFromValue decodes the operation value into a member, defaulting to
// the requestor's own identity when no value is supplied so self-service
// operations need no body.
func memberFromValue(value json.RawMessage, requestor Contributor) (Member, error) {
	if len(value) == 0 || string(value) == "null" {
		return Member{ContributorID: requestor.ID}, nil
	}
	var member Member
	if err := json.Unmarshal(value, &member); err != nil {
		return Member{}, fmt.Errorf("%w: invalid member value: %v", ErrUnsupportedOperation, err)
	}
	if member.ContributorID == "" {
		member.ContributorID = requestor.ID
	}
	return member, nil
}
