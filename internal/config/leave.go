package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LeavePolicy is the yearly leave allocation applied to every employee
// unless a per-employee allocation overrides it.
type LeavePolicy struct {
	Allocations map[string]int `yaml:"allocations"`
}

var leaveTypes = []string{"sick", "casual", "annual"}

// DefaultLeavePolicy returns the built-in yearly allocation.
func DefaultLeavePolicy() LeavePolicy {
	return LeavePolicy{Allocations: map[string]int{
		"sick":   10,
		"casual": 10,
		"annual": 15,
	}}
}

// LoadLeavePolicy reads a YAML allocation file. An empty path yields the defaults.
// Types missing from the file keep their default allocation.
//
//	allocations:
//	  sick: 12
//	  annual: 20
func LoadLeavePolicy(path string) (LeavePolicy, error) {
	policy := DefaultLeavePolicy()
	if path == "" {
		return policy, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return LeavePolicy{}, fmt.Errorf("read leave policy: %w", err)
	}

	var file LeavePolicy
	if err := yaml.Unmarshal(b, &file); err != nil {
		return LeavePolicy{}, fmt.Errorf("parse leave policy: %w", err)
	}

	for typ, days := range file.Allocations {
		if !knownLeaveType(typ) {
			return LeavePolicy{}, fmt.Errorf("leave policy: unknown leave type %q", typ)
		}
		if days < 0 {
			return LeavePolicy{}, fmt.Errorf("leave policy: negative allocation for %q", typ)
		}
		policy.Allocations[typ] = days
	}
	return policy, nil
}

func knownLeaveType(t string) bool {
	for _, lt := range leaveTypes {
		if lt == t {
			return true
		}
	}
	return false
}
