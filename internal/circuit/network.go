package circuit

// Realization is one draw of the four input bits: A=μ1, B=ν1, C=μ2, D=ν2.
type Realization struct {
	A bool
	B bool
	C bool
	D bool
}

// Outputs holds the two measured bits of the network after the final
// negation, i.e. the XNOR forms.
type Outputs struct {
	Agreement bool
	Conflict  bool
}

// Row is a single line of the network truth table.
type Row struct {
	Input  Realization
	Output Outputs
}

// tnorm is the boolean conjunction.
func tnorm(p, q bool) bool {
	return p && q
}

// snorm is the disjunction built from conjunction and negation.
func snorm(p, q bool) bool {
	return !tnorm(!p, !q)
}

// RawAgreement is S(T(b,c), T(a,d)) before the output flip.
func RawAgreement(r Realization) bool {
	return snorm(tnorm(r.B, r.C), tnorm(r.A, r.D))
}

// RawConflict is T(S(a,d), S(b,c)) before the output flip.
func RawConflict(r Realization) bool {
	return tnorm(snorm(r.A, r.D), snorm(r.B, r.C))
}

// Evaluate propagates a realization through the network.
func Evaluate(r Realization) Outputs {
	return Outputs{
		Agreement: !RawAgreement(r),
		Conflict:  !RawConflict(r),
	}
}

// RealizationFromIndex decodes i in [0,16) with A as the most significant bit.
func RealizationFromIndex(i int) Realization {
	return Realization{
		A: i&8 != 0,
		B: i&4 != 0,
		C: i&2 != 0,
		D: i&1 != 0,
	}
}

// TruthTable enumerates the network over every input combination.
func TruthTable() [16]Row {
	var table [16]Row
	for i := range table {
		r := RealizationFromIndex(i)
		table[i] = Row{Input: r, Output: Evaluate(r)}
	}
	return table
}
