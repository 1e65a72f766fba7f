// Package propagation implements the SGP4/SDP4 analytic orbit theory and a
// parallel sampler of sub-satellite points built on it.
//
// A Model is initialized once from an element set and then evaluated at any
// instant. Evaluation never mutates the model: the deep-space resonance
// integrator restarts from epoch on every call, so a Model can be shared
// between goroutines and identical inputs give bit-identical output.
package propagation

import (
	"errors"
	"math"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/transform"
)

const deg2rad = math.Pi / 180.0

// meanElements are the element set values in the units of the theory.
type meanElements struct {
	incl, node, ecc, argp, anomaly float64 // radians
	xno                            float64 // rad/min
	bstar                          float64
}

// secular holds the initialization shared by both branches: recovered mean
// motion and semi-major axis, drag coefficients and secular rates.
type secular struct {
	aodp, xnodp            float64
	cosio, sinio, theta2   float64
	x3thm1, x1mth2, x7thm1 float64
	eosq, betao, betao2    float64
	eta, tsi, coef, coef1  float64
	s4                     float64
	perigeeKm              float64

	c1, c4                      float64
	xmdot, omgdot, xnodot       float64
	xnodcf, t2cof, xlcof, aycof float64
}

// longPeriod is the state after secular (and, for deep space, lunar-solar)
// updates, handed to the Kepler solve and the short-period corrections.
type longPeriod struct {
	a, e, omega, xnode, xinc, xl float64
}

// Model is an initialized propagator for one element set.
type Model struct {
	catalog int
	epoch   sattime.Instant
	cfg     Config
	kind    Kind

	el  meanElements
	sec secular

	near nearEarthTerms  // NearEarth only
	deep *deepSpaceTerms // DeepSpace only

	// decayAt is the instant after which the drag heuristic considers the
	// object re-entered; +Inf without drag.
	decayAt sattime.Instant
}

// NewModel initializes the model for el. The branch is chosen from the
// recovered period: 225 minutes or more selects DeepSpace.
func NewModel(el *tle.ElementSet, cfg Config) (*Model, error) {
	if el == nil {
		return nil, errors.New("propagation: nil element set")
	}
	cfg = cfg.withDefaults()

	mean := meanElements{
		incl:    el.Inclination * deg2rad,
		node:    el.RAAN * deg2rad,
		ecc:     el.Eccentricity,
		argp:    el.ArgPerigee * deg2rad,
		anomaly: el.MeanAnomaly * deg2rad,
		xno:     el.MeanMotion * twoPi / minutesPerDay,
		bstar:   el.BStar,
	}

	m := &Model{
		catalog: el.NORADID,
		epoch:   el.Epoch,
		cfg:     cfg,
		el:      mean,
		decayAt: decayInstant(el),
	}
	if mean.ecc < 0 || mean.ecc >= 1 || mean.xno <= 0 {
		return nil, m.fail(el.Epoch, 0, ReasonInit)
	}

	m.sec = newSecular(mean)
	if twoPi/m.sec.xnodp/minutesPerDay >= deepSpacePeriodDays {
		m.kind = DeepSpace
		m.deep = newDeepSpaceTerms(mean, &m.sec, el.Epoch)
	} else {
		m.kind = NearEarth
		m.near = newNearEarthTerms(mean, &m.sec)
	}

	if !isFinite(m.sec.aodp, m.sec.xnodp, m.sec.c1, m.sec.c4, m.sec.xmdot, m.sec.omgdot, m.sec.xnodot) {
		return nil, m.fail(el.Epoch, 0, ReasonInit)
	}
	return m, nil
}

// Propagate computes the TEME state of el at t with default settings.
func Propagate(el *tle.ElementSet, t sattime.Instant) (transform.PositionTEME, error) {
	m, err := NewModel(el, DefaultConfig())
	if err != nil {
		return transform.PositionTEME{}, err
	}
	return m.Propagate(t)
}

// Propagate computes position (km) and velocity (km/s) in the TEME frame at t.
func (m *Model) Propagate(t sattime.Instant) (transform.PositionTEME, error) {
	tsince := t.Sub(m.epoch)
	if t > m.decayAt {
		return transform.PositionTEME{}, m.fail(t, tsince, ReasonDecayed)
	}

	var (
		lp     longPeriod
		reason string
	)
	switch m.kind {
	case DeepSpace:
		lp, reason = m.sdp4(tsince)
	default:
		lp, reason = m.sgp4(tsince)
	}
	if reason != "" {
		return transform.PositionTEME{}, m.fail(t, tsince, reason)
	}

	pos, reason := m.shortPeriod(lp)
	if reason != "" {
		return transform.PositionTEME{}, m.fail(t, tsince, reason)
	}
	return pos, nil
}

// Kind reports the branch selected at initialization.
func (m *Model) Kind() Kind { return m.kind }

// Catalog returns the catalog number of the element set.
func (m *Model) Catalog() int { return m.catalog }

// Epoch returns the element set epoch.
func (m *Model) Epoch() sattime.Instant { return m.epoch }

// PeriodMinutes returns the period from the recovered mean motion.
func (m *Model) PeriodMinutes() float64 { return twoPi / m.sec.xnodp }

func (m *Model) fail(t sattime.Instant, tsince float64, reason string) *PropagationError {
	return &PropagationError{Catalog: m.catalog, Instant: t, TsinceMin: tsince, Reason: reason}
}

func newSecular(el meanElements) secular {
	var s secular

	// Recover original mean motion and semi-major axis.
	a1 := math.Pow(xke/el.xno, twoThirds)
	s.cosio = math.Cos(el.incl)
	s.sinio = math.Sin(el.incl)
	s.theta2 = s.cosio * s.cosio
	s.x3thm1 = 3*s.theta2 - 1
	s.x1mth2 = 1 - s.theta2
	s.x7thm1 = 7*s.theta2 - 1
	s.eosq = el.ecc * el.ecc
	s.betao2 = 1 - s.eosq
	s.betao = math.Sqrt(s.betao2)
	del1 := 1.5 * ck2 * s.x3thm1 / (a1 * a1 * s.betao * s.betao2)
	ao := a1 * (1 - del1*(0.5*twoThirds+del1*(1+134.0/81.0*del1)))
	delo := 1.5 * ck2 * s.x3thm1 / (ao * ao * s.betao * s.betao2)
	s.xnodp = el.xno / (1 + delo)
	s.aodp = ao / (1 - delo)

	// Below 156 km perigee the atmosphere parameters s and q0 are adjusted.
	s.perigeeKm = (s.aodp*(1-el.ecc) - 1) * xkmper
	s.s4 = sParam
	qoms24 := qoms2t
	if s.perigeeKm < lowPerigeeKm {
		s4 := s.perigeeKm - 78
		if s.perigeeKm <= 98 {
			s4 = 20
		}
		qoms24 = math.Pow((120-s4)/xkmper, 4)
		s.s4 = s4/xkmper + 1
	}

	pinvsq := 1 / (s.aodp * s.aodp * s.betao2 * s.betao2)
	s.tsi = 1 / (s.aodp - s.s4)
	s.eta = s.aodp * el.ecc * s.tsi
	etasq := s.eta * s.eta
	eeta := el.ecc * s.eta
	psisq := math.Abs(1 - etasq)
	s.coef = qoms24 * math.Pow(s.tsi, 4)
	s.coef1 = s.coef / math.Pow(psisq, 3.5)

	c2 := s.coef1 * s.xnodp * (s.aodp*(1+1.5*etasq+eeta*(4+etasq)) +
		0.75*ck2*s.tsi/psisq*s.x3thm1*(8+3*etasq*(8+etasq)))
	s.c1 = el.bstar * c2
	s.c4 = 2 * s.xnodp * s.coef1 * s.aodp * s.betao2 *
		(s.eta*(2+0.5*etasq) + el.ecc*(0.5+2*etasq) -
			2*ck2*s.tsi/(s.aodp*psisq)*
				(-3*s.x3thm1*(1-2*eeta+etasq*(1.5-0.5*eeta))+
					0.75*s.x1mth2*(2*etasq-eeta*(1+etasq))*math.Cos(2*el.argp)))

	theta4 := s.theta2 * s.theta2
	temp1 := 3 * ck2 * pinvsq * s.xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * s.xnodp
	s.xmdot = s.xnodp + 0.5*temp1*s.betao*s.x3thm1 +
		0.0625*temp2*s.betao*(13-78*s.theta2+137*theta4)
	x1m5th := 1 - 5*s.theta2
	s.omgdot = -0.5*temp1*x1m5th + 0.0625*temp2*(7-114*s.theta2+395*theta4) +
		temp3*(3-36*s.theta2+49*theta4)
	xhdot1 := -temp1 * s.cosio
	s.xnodot = xhdot1 + (0.5*temp2*(4-19*s.theta2)+2*temp3*(3-7*s.theta2))*s.cosio
	s.xnodcf = 3.5 * s.betao2 * xhdot1 * s.c1
	s.t2cof = 1.5 * s.c1

	// Retrograde equatorial orbits would divide by zero here.
	den := 1 + s.cosio
	if math.Abs(den) < 1.5e-12 {
		den = 1.5e-12
	}
	s.xlcof = 0.125 * a3ovk2 * s.sinio * (3 + 5*s.cosio) / den
	s.aycof = 0.25 * a3ovk2 * s.sinio
	return s
}

// shortPeriod applies the long-period J3 terms, solves Kepler's equation,
// adds short-period periodics and rotates the result into TEME.
func (m *Model) shortPeriod(lp longPeriod) (transform.PositionTEME, string) {
	sec := &m.sec

	e := lp.e
	if e >= 1 || e < -0.001 {
		return transform.PositionTEME{}, ReasonEccentricity
	}
	if e < 1e-6 {
		e = 1e-6
	}
	if lp.a < 0.95 {
		return transform.PositionTEME{}, ReasonDecayed
	}

	xn := xke / math.Pow(lp.a, 1.5)
	axn := e * math.Cos(lp.omega)
	temp := 1 / (lp.a * (1 - e*e))
	xlt := lp.xl + temp*sec.xlcof*axn
	ayn := e*math.Sin(lp.omega) + temp*sec.aycof

	capu := mod2Pi(xlt - lp.xnode)
	sinE, cosE, ok := solveKepler(capu, axn, ayn, m.cfg.MaxKeplerIterations)
	if !ok {
		return transform.PositionTEME{}, ReasonKepler
	}

	ecose := axn*cosE + ayn*sinE
	esine := axn*sinE - ayn*cosE
	elsq := axn*axn + ayn*ayn
	pl := lp.a * (1 - elsq)
	if pl < 0 {
		return transform.PositionTEME{}, ReasonSemiLatus
	}

	r := lp.a * (1 - ecose)
	rdot := xke * math.Sqrt(lp.a) * esine / r
	rfdot := xke * math.Sqrt(pl) / r
	betal := math.Sqrt(1 - elsq)
	t3 := 1 / (1 + betal)
	ar := lp.a / r
	cosu := ar * (cosE - axn + ayn*esine*t3)
	sinu := ar * (sinE - ayn - axn*esine*t3)
	u := math.Atan2(sinu, cosu)
	sin2u := 2 * sinu * cosu
	cos2u := 2*cosu*cosu - 1

	t1 := ck2 / pl
	t2 := t1 / pl
	rk := r*(1-1.5*t2*betal*sec.x3thm1) + 0.5*t1*sec.x1mth2*cos2u
	uk := u - 0.25*t2*sec.x7thm1*sin2u
	xnodek := lp.xnode + 1.5*t2*sec.cosio*sin2u
	xinck := lp.xinc + 1.5*t2*sec.cosio*sec.sinio*cos2u
	rdotk := rdot - xn*t1*sec.x1mth2*sin2u
	rfdotk := rfdot + xn*t1*(sec.x1mth2*cos2u+1.5*sec.x3thm1)

	if rk < 1 {
		return transform.PositionTEME{}, ReasonDecayed
	}

	// Orientation vectors.
	sinuk, cosuk := math.Sincos(uk)
	sinik, cosik := math.Sincos(xinck)
	sinnok, cosnok := math.Sincos(xnodek)
	xmx := -sinnok * cosik
	xmy := cosnok * cosik
	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	pos := transform.PositionTEME{
		X:  rk * ux * xkmper,
		Y:  rk * uy * xkmper,
		Z:  rk * uz * xkmper,
		VX: (rdotk*ux + rfdotk*vx) * vkmps,
		VY: (rdotk*uy + rfdotk*vy) * vkmps,
		VZ: (rdotk*uz + rfdotk*vz) * vkmps,
	}
	if !isFinite(pos.X, pos.Y, pos.Z, pos.VX, pos.VY, pos.VZ) {
		return transform.PositionTEME{}, ReasonNonFinite
	}
	return pos, ""
}

// decayInstant estimates when drag lifts the mean motion to 16.67 rev/day,
// the point at which an object is treated as re-entered.
func decayInstant(el *tle.ElementSet) sattime.Instant {
	drag := math.Abs(el.MeanMotionDot)
	if drag == 0 {
		return sattime.Instant(math.Inf(1))
	}
	return el.Epoch + sattime.Instant((16.666666-el.MeanMotion)/(10*drag))
}

func isFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
