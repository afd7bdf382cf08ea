package model

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Signature identifies a method by name and ordered parameter types
type Signature struct {
	Name       string
	ParamTypes []string
}

// SignatureOf builds the signature of a method declaration
func SignatureOf(method *MethodNode) Signature {
	types := make([]string, len(method.Params))
	for i, p := range method.Params {
		types[i] = p.Type
	}
	return Signature{Name: method.Name, ParamTypes: types}
}

// String renders the signature as name(T1,T2)
func (s Signature) String() string {
	return s.Name + "(" + strings.Join(s.ParamTypes, ",") + ")"
}

// Equal compares name and parameter types exactly
func (s Signature) Equal(other Signature) bool {
	if s.Name != other.Name || len(s.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	for i, t := range s.ParamTypes {
		if t != other.ParamTypes[i] {
			return false
		}
	}
	return true
}

// NormalizeBody collapses every run of whitespace to a single space and
// trims, so formatting differences never affect body comparison.
func NormalizeBody(body string) string {
	return strings.Join(strings.Fields(body), " ")
}

// BodyDigest returns a fast digest of the normalized body text
func BodyDigest(body string) uint64 {
	return xxhash.Sum64String(NormalizeBody(body))
}

// SameBody reports whether two bodies are identical modulo whitespace
func SameBody(a, b string) bool {
	return BodyDigest(a) == BodyDigest(b)
}
