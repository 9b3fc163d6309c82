package chunk

// absSq returns |v|^2 as a real-valued element, computed in the storage
// precision. The measurement scan accumulates these, not the raw complex
// values.
func absSq[C Complex](v C) C {
	switch x := any(v).(type) {
	case complex64:
		m := real(x)*real(x) + imag(x)*imag(x)
		return any(complex(m, 0)).(C)
	case complex128:
		m := real(x)*real(x) + imag(x)*imag(x)
		return any(complex(m, 0)).(C)
	}
	var zero C
	return zero
}

// promote widens an element to complex128 for reduction accumulators.
func promote[C Complex](v C) complex128 {
	switch x := any(v).(type) {
	case complex64:
		return complex128(x)
	case complex128:
		return x
	}
	return 0
}

// realPart returns the real component of v as float64. The cumulative
// distribution built by the scan lives in the real component.
func realPart[C Complex](v C) float64 {
	return real(promote(v))
}
