package recipe

import (
	"fmt"
	"sort"
)

// Option declares one build-time choice: its name, the legal values, and
// the default selected when the orchestrator provides no value.
type Option struct {
	Name    string
	Domain  []any
	Default any
}

// OptionSet holds the currently selected value for every declared option.
// The orchestrator assigns values before the lifecycle starts; the recipe's
// configure phase may remove options that do not apply to the target.
type OptionSet struct {
	declared map[string]Option
	values   map[string]any
}

// NewOptionSet builds an OptionSet with every option at its default value.
func NewOptionSet(opts ...Option) *OptionSet {
	s := &OptionSet{
		declared: make(map[string]Option, len(opts)),
		values:   make(map[string]any, len(opts)),
	}
	for _, opt := range opts {
		s.declared[opt.Name] = opt
		s.values[opt.Name] = opt.Default
	}
	return s
}

// Set assigns a value to a declared option. Unknown options and values
// outside the declared domain are configuration errors.
func (s *OptionSet) Set(name string, value any) error {
	opt, ok := s.declared[name]
	if !ok {
		return fmt.Errorf("%w: unknown option %q", ErrConfiguration, name)
	}
	for _, legal := range opt.Domain {
		if legal == value {
			s.values[name] = value
			return nil
		}
	}
	return fmt.Errorf("%w: option %q does not accept %v", ErrConfiguration, name, value)
}

// Get returns the current value of an option and whether it is present.
func (s *OptionSet) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether an option is still part of the set.
func (s *OptionSet) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Bool returns the value of a boolean option, false when the option is
// absent from the set.
func (s *OptionSet) Bool(name string) bool {
	v, ok := s.values[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Remove drops an option from the set. Removing an absent option is a
// no-op, so configure phases can prune unconditionally.
func (s *OptionSet) Remove(name string) {
	delete(s.values, name)
	delete(s.declared, name)
}

// Names returns the names of all present options in sorted order.
func (s *OptionSet) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
