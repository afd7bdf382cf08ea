package model

// Visibility is the Java access-level lattice, ordered narrowest to widest:
// private < package-private < protected < public.
type Visibility uint8

const (
	VisibilityPrivate Visibility = iota
	VisibilityPackage
	VisibilityProtected
	VisibilityPublic
)

// String returns string representation of the visibility level
func (v Visibility) String() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityPackage:
		return "package-private"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	default:
		return "unknown"
	}
}

// Keyword returns the Java source keyword for the level.
// Package-private has no keyword and returns the empty string.
func (v Visibility) Keyword() string {
	switch v {
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityPublic:
		return "public"
	default:
		return ""
	}
}

// Join returns the lattice join (the wider of the two levels)
func (v Visibility) Join(other Visibility) Visibility {
	if other > v {
		return other
	}
	return v
}

// ParseVisibility maps a modifier keyword list to a visibility level.
// Absence of an access modifier means package-private.
func ParseVisibility(modifiers []string) Visibility {
	for _, m := range modifiers {
		switch m {
		case "private":
			return VisibilityPrivate
		case "protected":
			return VisibilityProtected
		case "public":
			return VisibilityPublic
		}
	}
	return VisibilityPackage
}
