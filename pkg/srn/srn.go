// Package srn implements Structured Resource Names, the archive's canonical
// identifiers: urn:osa:{node}:{type}:{local}[@{version}].
//
// The node segment names the archive node that minted the resource
// (e.g. "localhost" for a development node). The local segment is an opaque
// node-scoped identifier, conventionally a lowercase ULID. Records carry an
// integer version (@1, @2, ...); conventions and schemas carry a semantic
// version (@1.0.0); depositions are unversioned.
package srn

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Type is the resource type segment of an SRN.
type Type string

const (
	TypeRecord     Type = "rec"
	TypeDeposition Type = "dep"
	TypeConvention Type = "conv"
	TypeSchema     Type = "schema"
)

const prefix = "urn:osa:"

// ErrInvalid reports a malformed SRN string.
var ErrInvalid = errors.New("srn: invalid")

var (
	nodeRe   = regexp.MustCompile(`^[a-z0-9][a-z0-9._\-]*$`)
	localRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9._\-]{0,63}$`)
	intVerRe = regexp.MustCompile(`^[1-9]\d*$`)
	semverRe = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9a-z.\-]+)?(?:\+[0-9a-z.\-]+)?$`)
)

func knownType(t Type) bool {
	switch t {
	case TypeRecord, TypeDeposition, TypeConvention, TypeSchema:
		return true
	}
	return false
}

// SRN holds the parsed segments of a structured resource name.
// The zero value is not a valid SRN.
type SRN struct {
	Node    string
	Type    Type
	Local   string
	Version string // "" when unversioned
}

// New builds an unversioned SRN from its segments.
func New(node string, typ Type, local string) SRN {
	return SRN{Node: node, Type: typ, Local: local}
}

// WithVersion returns a copy of s with the version segment set.
func (s SRN) WithVersion(version string) SRN {
	s.Version = version
	return s
}

// IsZero reports whether s is the zero value.
func (s SRN) IsZero() bool { return s == SRN{} }

// String renders the canonical urn form.
func (s SRN) String() string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(s.Node)
	b.WriteByte(':')
	b.WriteString(string(s.Type))
	b.WriteByte(':')
	b.WriteString(s.Local)
	if s.Version != "" {
		b.WriteByte('@')
		b.WriteString(s.Version)
	}
	return b.String()
}

// Validate checks segment grammar and the per-type version rule: records take
// an optional integer version (>= 1), conventions and schemas an optional
// semantic version, depositions none.
func (s SRN) Validate() error {
	if !knownType(s.Type) {
		return fmt.Errorf("%w: unknown resource type %q", ErrInvalid, s.Type)
	}
	if !nodeRe.MatchString(s.Node) {
		return fmt.Errorf("%w: bad node segment %q", ErrInvalid, s.Node)
	}
	if !localRe.MatchString(s.Local) {
		return fmt.Errorf("%w: bad local segment %q", ErrInvalid, s.Local)
	}
	if s.Version == "" {
		return nil
	}

	switch s.Type {
	case TypeRecord:
		if !intVerRe.MatchString(s.Version) {
			return fmt.Errorf("%w: record version must be a positive integer, got %q", ErrInvalid, s.Version)
		}
	case TypeConvention, TypeSchema:
		if !semverRe.MatchString(s.Version) {
			return fmt.Errorf("%w: %s version must be semver, got %q", ErrInvalid, s.Type, s.Version)
		}
	case TypeDeposition:
		return fmt.Errorf("%w: depositions are unversioned, got %q", ErrInvalid, s.Version)
	}
	return nil
}

// Parse parses and validates an SRN string. Input is case-insensitive;
// segments are canonicalised to lowercase.
func Parse(raw string) (SRN, error) {
	in := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(in, prefix) {
		return SRN{}, fmt.Errorf("%w: missing %q prefix in %q", ErrInvalid, prefix, raw)
	}

	rest := in[len(prefix):]
	parts := strings.SplitN(rest, ":", 3)
	if len(parts) != 3 {
		return SRN{}, fmt.Errorf("%w: expected urn:osa:{node}:{type}:{local} in %q", ErrInvalid, raw)
	}

	s := SRN{Node: parts[0], Type: Type(parts[1])}

	local := parts[2]
	if at := strings.IndexByte(local, '@'); at >= 0 {
		s.Version = local[at+1:]
		local = local[:at]
	}
	s.Local = local

	if err := s.Validate(); err != nil {
		return SRN{}, err
	}
	return s, nil
}

// ParseType parses an SRN and requires it to name a resource of type want.
func ParseType(raw string, want Type) (SRN, error) {
	s, err := Parse(raw)
	if err != nil {
		return SRN{}, err
	}
	if s.Type != want {
		return SRN{}, fmt.Errorf("%w: expected %s SRN, got %s in %q", ErrInvalid, want, s.Type, raw)
	}
	return s, nil
}

// MustParse parses or panics. Useful for hard-coded SRNs in tests and seeds.
func MustParse(raw string) SRN {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalText renders the urn form, letting SRNs embed directly in JSON
// payloads.
func (s SRN) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses the urn form.
func (s *SRN) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
