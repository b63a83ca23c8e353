package generators

// kahanSum accumulates float64 values with Kahan compensated summation, so
// that millions of tiny increments (phase deltas, envelope slopes) do not
// drift.
type kahanSum struct {
	sum float64
	c   float64
}

func (k *kahanSum) add(v float64) {
	y := v - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

func (k *kahanSum) value() float64 {
	return k.sum
}

// set replaces the accumulated value and forgets the compensation term.
func (k *kahanSum) set(v float64) {
	k.sum = v
	k.c = 0
}
