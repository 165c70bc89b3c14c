package pack

// FloatRangeType is a built-in pack holding an ordered [minimum, maximum]
// float range. The ordering invariant rejects any write that would leave
// minimum above maximum, including writes proposed through an enclosing
// pack.
var FloatRangeType = MustNewType("FloatRange", []Field{
	{Name: "minimum", Type: Float()},
	{Name: "maximum", Type: Float()},
}, WithInvariant(RuleInvariant("minimum <= maximum")))

// NewFloatRange constructs a FloatRange instance.
func NewFloatRange(minimum, maximum float64) (*Instance, error) {
	return FloatRangeType.New(minimum, maximum)
}

// SetRange updates both ends of a FloatRange in one commit, so moves that
// are invalid piecewise (raising minimum past the old maximum) validate
// against the complete proposed state.
func SetRange(r *Instance, minimum, maximum float64) error {
	return r.SetValues(map[string]any{
		"minimum": minimum,
		"maximum": maximum,
	})
}
