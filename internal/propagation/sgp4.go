package propagation

import "math"

// nearEarthTerms are the SGP4 drag coefficients that only the near-Earth
// branch uses.
type nearEarthTerms struct {
	// simple truncates drag to linear variation in sqrt(a) and quadratic
	// variation in mean anomaly (perigee below 220 km).
	simple bool

	c5, omgcof, xmcof   float64
	delmo, sinmo        float64
	d2, d3, d4          float64
	t3cof, t4cof, t5cof float64
}

func newNearEarthTerms(el meanElements, s *secular) nearEarthTerms {
	var n nearEarthTerms

	n.simple = s.aodp*(1-el.ecc) < simplePerigeeKm/xkmper+1

	etasq := s.eta * s.eta
	eeta := el.ecc * s.eta
	n.c5 = 2 * s.coef1 * s.aodp * s.betao2 * (1 + 2.75*(etasq+eeta) + eeta*etasq)

	// Circular orbits carry no c3 or mean anomaly drag term.
	if el.ecc > 1e-4 {
		c3 := s.coef * s.tsi * a3ovk2 * s.xnodp * s.sinio / el.ecc
		n.omgcof = el.bstar * c3 * math.Cos(el.argp)
		n.xmcof = -twoThirds * s.coef * el.bstar / eeta
	}
	n.delmo = math.Pow(1+s.eta*math.Cos(el.anomaly), 3)
	n.sinmo = math.Sin(el.anomaly)

	if !n.simple {
		c1sq := s.c1 * s.c1
		n.d2 = 4 * s.aodp * s.tsi * c1sq
		temp := n.d2 * s.tsi * s.c1 / 3
		n.d3 = (17*s.aodp + s.s4) * temp
		n.d4 = 0.5 * temp * s.aodp * s.tsi * (221*s.aodp + 31*s.s4) * s.c1
		n.t3cof = n.d2 + 2*c1sq
		n.t4cof = 0.25 * (3*n.d3 + s.c1*(12*n.d2+10*c1sq))
		n.t5cof = 0.2 * (3*n.d4 + 12*s.c1*n.d3 + 6*n.d2*n.d2 + 15*c1sq*(2*n.d2+c1sq))
	}
	return n
}

// sgp4 applies secular gravity and atmospheric drag for tsince minutes.
func (m *Model) sgp4(tsince float64) (longPeriod, string) {
	el, s, n := &m.el, &m.sec, &m.near

	xmdf := el.anomaly + s.xmdot*tsince
	omgadf := el.argp + s.omgdot*tsince
	xnoddf := el.node + s.xnodot*tsince
	omega := omgadf
	xmp := xmdf
	tsq := tsince * tsince
	xnode := xnoddf + s.xnodcf*tsq
	tempa := 1 - s.c1*tsince
	tempe := el.bstar * s.c4 * tsince
	templ := s.t2cof * tsq

	if !n.simple {
		delomg := n.omgcof * tsince
		delm := n.xmcof * (math.Pow(1+s.eta*math.Cos(xmdf), 3) - n.delmo)
		temp := delomg + delm
		xmp = xmdf + temp
		omega = omgadf - temp
		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa -= n.d2*tsq + n.d3*tcube + n.d4*tfour
		tempe += el.bstar * n.c5 * (math.Sin(xmp) - n.sinmo)
		templ += n.t3cof*tcube + tfour*(n.t4cof+tsince*n.t5cof)
	}
	if tempa <= 0 {
		return longPeriod{}, ReasonDecayed
	}

	return longPeriod{
		a:     s.aodp * tempa * tempa,
		e:     el.ecc - tempe,
		omega: omega,
		xnode: xnode,
		xinc:  el.incl,
		xl:    xmp + omega + xnode + s.xnodp*templ,
	}, ""
}
