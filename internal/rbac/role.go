// AngelaMos | 2026
// role.go

package rbac

import (
	"fmt"

	"github.com/northstarhq/northstar/internal/core"
)

// Role is an organizational role. Precedence is total and fixed:
// root > admin > leader > member. Root implicitly satisfies every
// role check and is exempt from tenant scoping.
type Role string

const (
	RoleRoot   Role = "root"
	RoleAdmin  Role = "admin"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

// precedence is the only place the role order is defined. Comparisons go
// through Level; call sites never hard-code orderings.
var precedence = map[Role]int{
	RoleRoot:   40,
	RoleAdmin:  30,
	RoleLeader: 20,
	RoleMember: 10,
}

func Parse(s string) (Role, error) {
	r := Role(s)
	if _, ok := precedence[r]; !ok {
		return "", fmt.Errorf("parse role %q: %w", s, core.ErrInvalidInput)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := precedence[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// Level returns the role's precedence rank; unknown roles rank below every
// valid role.
func (r Role) Level() int {
	return precedence[r]
}

// Effective returns the highest-precedence role in the set. An empty set is
// a data-integrity violation (every user is granted member at registration),
// so callers should log it distinctly from an authorization denial.
func Effective(roles []Role) (Role, error) {
	if len(roles) == 0 {
		return "", core.ErrNoRoleAssigned
	}

	best := roles[0]
	for _, r := range roles[1:] {
		if r.Level() > best.Level() {
			best = r
		}
	}

	return best, nil
}

// HasRole reports whether the set contains root or intersects required.
func HasRole(roles []Role, required ...Role) bool {
	for _, r := range roles {
		if r == RoleRoot {
			return true
		}
		for _, req := range required {
			if r == req {
				return true
			}
		}
	}
	return false
}

// HasMinimum reports whether the effective role is at or above threshold.
// Root always passes. An empty set never passes.
func HasMinimum(roles []Role, threshold Role) bool {
	effective, err := Effective(roles)
	if err != nil {
		return false
	}

	if effective == RoleRoot {
		return true
	}

	return effective.Level() >= threshold.Level()
}

func IsRoot(roles []Role) bool {
	for _, r := range roles {
		if r == RoleRoot {
			return true
		}
	}
	return false
}
