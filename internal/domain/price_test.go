package domain

import "testing"

func TestToNormalizedPrice(t *testing.T) {
	cases := []struct {
		name  string
		price float64
		ok    bool
	}{
		{"typical", 1.5, true},
		{"zero", 0, false},
		{"negative", -1, false},
		{"nan", nan(), false},
		{"inf", inf(), false},
		{"tiny_nonzero", 1e-30, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, ok := ToNormalizedPrice(c.price)
			if ok != c.ok {
				t.Fatalf("ToNormalizedPrice(%v) ok=%v, want %v", c.price, ok, c.ok)
			}
		})
	}
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { var z float64; return 1 / z }
