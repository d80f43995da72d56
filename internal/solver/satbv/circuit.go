package satbv

// Literals are DIMACS integers. Variable 1 is fixed to true by a unit
// clause, so tru and fls can appear in gates like any other literal.
const (
	tru = 1
	fls = -1
)

type circuit struct {
	nvars   int
	clauses [][]int
}

func newCircuit() *circuit {
	return &circuit{nvars: 1, clauses: [][]int{{tru}}}
}

func (c *circuit) fresh() int {
	c.nvars++
	return c.nvars
}

func (c *circuit) clause(lits ...int) {
	c.clauses = append(c.clauses, lits)
}

func (c *circuit) and(a, b int) int {
	switch {
	case a == fls || b == fls || a == -b:
		return fls
	case a == tru:
		return b
	case b == tru || a == b:
		return a
	}
	g := c.fresh()
	c.clause(-g, a)
	c.clause(-g, b)
	c.clause(g, -a, -b)
	return g
}

func (c *circuit) or(a, b int) int {
	return -c.and(-a, -b)
}

func (c *circuit) xor(a, b int) int {
	switch {
	case a == fls:
		return b
	case b == fls:
		return a
	case a == tru:
		return -b
	case b == tru:
		return -a
	case a == b:
		return fls
	case a == -b:
		return tru
	}
	g := c.fresh()
	c.clause(-g, a, b)
	c.clause(-g, -a, -b)
	c.clause(g, -a, b)
	c.clause(g, a, -b)
	return g
}

// mux is s ? t : f.
func (c *circuit) mux(s, t, f int) int {
	switch {
	case s == tru:
		return t
	case s == fls:
		return f
	case t == f:
		return t
	}
	g := c.fresh()
	c.clause(-s, -t, g)
	c.clause(-s, t, -g)
	c.clause(s, -f, g)
	c.clause(s, f, -g)
	return g
}

// Bit-vectors are little-endian slices of literals.

func (c *circuit) input(width int) []int {
	bits := make([]int, width)
	for i := range bits {
		bits[i] = c.fresh()
	}
	return bits
}

func constant(u uint64, width int) []int {
	bits := make([]int, width)
	for i := range bits {
		if u>>uint(i)&1 == 1 {
			bits[i] = tru
		} else {
			bits[i] = fls
		}
	}
	return bits
}

func invert(a []int) []int {
	out := make([]int, len(a))
	for i, l := range a {
		out[i] = -l
	}
	return out
}

func (c *circuit) muxv(s int, t, f []int) []int {
	out := make([]int, len(t))
	for i := range t {
		out[i] = c.mux(s, t[i], f[i])
	}
	return out
}

// adder is a ripple-carry adder returning the sum and the carry out.
func (c *circuit) adder(a, b []int, carry int) ([]int, int) {
	sum := make([]int, len(a))
	for i := range a {
		t := c.xor(a[i], b[i])
		sum[i] = c.xor(t, carry)
		carry = c.or(c.and(a[i], b[i]), c.and(carry, t))
	}
	return sum, carry
}

func (c *circuit) add(a, b []int) []int {
	sum, _ := c.adder(a, b, fls)
	return sum
}

func (c *circuit) sub(a, b []int) []int {
	diff, _ := c.adder(a, invert(b), tru)
	return diff
}

func (c *circuit) neg(a []int) []int {
	out, _ := c.adder(invert(a), constant(0, len(a)), tru)
	return out
}

func (c *circuit) mul(a, b []int) []int {
	w := len(a)
	acc := constant(0, w)
	for i := 0; i < w; i++ {
		if b[i] == fls {
			continue
		}
		partial := make([]int, w)
		for j := range partial {
			if j < i {
				partial[j] = fls
			} else {
				partial[j] = c.and(a[j-i], b[i])
			}
		}
		acc = c.add(acc, partial)
	}
	return acc
}

// uge is unsigned a >= b: the carry out of a - b.
func (c *circuit) uge(a, b []int) int {
	_, carry := c.adder(a, invert(b), tru)
	return carry
}

// udivrem is restoring division. Division by zero yields an all-ones
// quotient and the dividend as remainder.
func (c *circuit) udivrem(a, b []int) (q, r []int) {
	n := len(a)
	divisor := append(append([]int{}, b...), fls)
	rem := constant(0, n+1)
	q = make([]int, n)
	for i := n - 1; i >= 0; i-- {
		shifted := make([]int, n+1)
		shifted[0] = a[i]
		copy(shifted[1:], rem[:n])
		diff, ge := c.adder(shifted, invert(divisor), tru)
		q[i] = ge
		rem = c.muxv(ge, diff, shifted)
	}
	return q, rem[:n]
}

func sign(a []int) int { return a[len(a)-1] }

func (c *circuit) abs(a []int) []int {
	return c.muxv(sign(a), c.neg(a), a)
}

func (c *circuit) sdiv(a, b []int) []int {
	q, _ := c.udivrem(c.abs(a), c.abs(b))
	return c.muxv(c.xor(sign(a), sign(b)), c.neg(q), q)
}

func (c *circuit) srem(a, b []int) []int {
	_, r := c.udivrem(c.abs(a), c.abs(b))
	return c.muxv(sign(a), c.neg(r), r)
}

// flip maps signed order onto unsigned order.
func flip(a []int) []int {
	out := append([]int{}, a...)
	out[len(out)-1] = -out[len(out)-1]
	return out
}

func (c *circuit) slt(a, b []int) int { return -c.uge(flip(a), flip(b)) }

func (c *circuit) sle(a, b []int) int { return c.uge(flip(b), flip(a)) }

func (c *circuit) eq(a, b []int) int {
	out := tru
	for i := range a {
		out = c.and(out, -c.xor(a[i], b[i]))
	}
	return out
}

func (c *circuit) nonzero(a []int) int {
	out := fls
	for _, l := range a {
		out = c.or(out, l)
	}
	return out
}
