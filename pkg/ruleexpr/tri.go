package ruleexpr

// Tri is a three-valued truth value with the ordering False < Unknown < True.
// Under this ordering AND is a minimum and OR is a maximum (Kleene semantics),
// so predicates over incomplete documents never collapse Unknown into a
// definite answer.
type Tri int8

const (
	False Tri = iota
	Unknown
	True
)

func (t Tri) And(other Tri) Tri {
	if other < t {
		return other
	}
	return t
}

func (t Tri) Or(other Tri) Tri {
	if other > t {
		return other
	}
	return t
}

func (t Tri) Not() Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
