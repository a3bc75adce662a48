package led

// ZoneMap gives the zone index of every pixel along the strip.
type ZoneMap []int

// Order holds how zones are laid out along the strip.
type Order struct {
	// Reverse runs the zones from the far end of the strip.
	Reverse bool
}

// BuildZoneMap lays ledsPerZone consecutive pixels out per zone.
func BuildZoneMap(zones, ledsPerZone int, order Order) ZoneMap {
	if zones < 1 {
		zones = 1
	}
	if ledsPerZone < 1 {
		ledsPerZone = 1
	}
	out := make(ZoneMap, 0, zones*ledsPerZone)
	for i := 0; i < zones; i++ {
		z := i
		if order.Reverse {
			z = zones - 1 - i
		}
		for p := 0; p < ledsPerZone; p++ {
			out = append(out, z)
		}
	}
	return out
}

func (m ZoneMap) Pixels() int { return len(m) }

// Zones is one more than the highest zone index.
func (m ZoneMap) Zones() int {
	n := 0
	for _, z := range m {
		if z+1 > n {
			n = z + 1
		}
	}
	return n
}

// PixelsOf lists the pixels lit by zone z, in strip order.
func (m ZoneMap) PixelsOf(z int) []int {
	var out []int
	for p, zz := range m {
		if zz == z {
			out = append(out, p)
		}
	}
	return out
}
