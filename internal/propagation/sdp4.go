package propagation

import (
	"math"

	"github.com/star/passpredict/internal/sattime"
)

// Lunar-solar and resonance constants of the deep-space theory.
const (
	zns    = 1.19459e-5
	zes    = 1.675e-2
	c1ss   = 2.9864797e-6
	zsinis = 3.9785416e-1
	zsings = -9.8088458e-1
	zcosis = 9.1744867e-1
	zcosgs = 1.945905e-1
	znl    = 1.5835218e-4
	zel    = 5.490e-2
	c1l    = 4.7968065e-7

	root22 = 1.7891679e-6
	root32 = 3.7393792e-7
	root44 = 7.3636953e-9
	root52 = 1.1428639e-7
	root54 = 2.1765803e-9
	thdt   = 4.3752691e-3 // Earth rotation, rad/min

	q22 = 1.7891679e-6
	q31 = 2.1460748e-6
	q33 = 2.2123015e-7
	g22 = 5.7686396
	g32 = 9.5240898e-1
	g44 = 1.8014998
	g52 = 1.0508330
	g54 = 4.4108898

	fasx2 = 0.13130908
	fasx4 = 2.8843198
	fasx6 = 0.37448087

	// Integrator step (minutes) and half its square.
	stepp = 720.0
	step2 = 259200.0

	// Below this inclination the node terms of both perturbers are dropped.
	minInclForNode = 5.2359877e-2
	// Below this inclination periodics use the Lyddane formulation.
	lyddaneIncl = 0.2
)

type resonance int

const (
	resonanceNone resonance = iota
	resonanceHalfDay
	resonanceSynchronous
)

// periodicCoef are the amplitudes of one perturber's long-period terms.
type periodicCoef struct {
	e2, e3, i2, i3 float64
	l2, l3, l4     float64
	gh2, gh3, gh4  float64
	h2, h3         float64
}

// luniSolarTerms are one perturber's secular rates and periodic amplitudes.
type luniSolarTerms struct {
	se, si, sl, sgh, sh float64
	coef                periodicCoef
}

// perturber describes the Sun or Moon orbit geometry for luniSolar.
type perturber struct {
	zcosg, zsing, zcosi, zsini, zcosh, zsinh float64
	cc, zn, ze                               float64
}

// deepSpaceTerms is the SDP4 initialization. It is read-only after
// newDeepSpaceTerms.
type deepSpaceTerms struct {
	thgr       float64 // Greenwich sidereal angle at epoch
	xnq, xqncl float64
	omegaq     float64
	zmol, zmos float64

	// Secular rates of e, i, l, g and h from both perturbers.
	sse, ssi, ssl, ssg, ssh float64
	sun, moon               periodicCoef

	res resonance
	// Synchronous resonance.
	del1, del2, del3 float64
	// Half-day resonance.
	d2201, d2211, d3210, d3222, d4410 float64
	d4422, d5220, d5232, d5421, d5433 float64

	xlamo, xfact float64
	omgdot       float64
}

// deepState is the per-call mutable state of the deep-space branch.
type deepState struct {
	xll, omgadf, xnode, em, xinc, xn float64
}

func newDeepSpaceTerms(el meanElements, s *secular, epoch sattime.Instant) *deepSpaceTerms {
	d := &deepSpaceTerms{
		xnq:    s.xnodp,
		xqncl:  el.incl,
		omegaq: el.argp,
		omgdot: s.omgdot,
	}

	ds50 := epoch.Julian() - 2433281.5
	d.thgr = mod2Pi(6.3003880987*ds50 + 1.72944494)
	day := ds50 + 18261.5 // days since 1900 Jan 0.5

	// Lunar orbit at epoch.
	xnodce := 4.5236020 - 9.2422029e-4*day
	stem, ctem := math.Sincos(xnodce)
	zcosil := 0.91375164 - 0.03568096*ctem
	zsinil := math.Sqrt(1 - zcosil*zcosil)
	zsinhl := 0.089683511 * stem / zsinil
	zcoshl := math.Sqrt(1 - zsinhl*zsinhl)
	c := 4.7199672 + 0.22997150*day
	gam := 5.8351514 + 0.0019443680*day
	d.zmol = mod2Pi(c - gam)
	zx := 0.39785416 * stem / zsinil
	zy := zcoshl*ctem + 0.91744867*zsinhl*stem
	zx = gam + math.Atan2(zx, zy) - xnodce
	zsingl, zcosgl := math.Sincos(zx)
	d.zmos = mod2Pi(6.2565837 + 0.017201977*day)

	sinq, cosq := math.Sincos(el.node)
	sing, cosg := math.Sincos(el.argp)
	xnoi := 1 / d.xnq
	lowIncl := el.incl < minInclForNode

	sun := luniSolar(perturber{
		zcosg: zcosgs, zsing: zsings, zcosi: zcosis, zsini: zsinis,
		zcosh: cosq, zsinh: sinq,
		cc: c1ss, zn: zns, ze: zes,
	}, s, el.ecc, xnoi, sing, cosg, lowIncl)
	moon := luniSolar(perturber{
		zcosg: zcosgl, zsing: zsingl, zcosi: zcosil, zsini: zsinil,
		zcosh: zcoshl*cosq + zsinhl*sinq,
		zsinh: sinq*zcoshl - cosq*zsinhl,
		cc:    c1l, zn: znl, ze: zel,
	}, s, el.ecc, xnoi, sing, cosg, lowIncl)

	overSin := func(x float64) float64 {
		if x == 0 {
			return 0
		}
		return x / s.sinio
	}
	d.sse = sun.se + moon.se
	d.ssi = sun.si + moon.si
	d.ssl = sun.sl + moon.sl
	d.ssh = overSin(sun.sh) + overSin(moon.sh)
	d.ssg = sun.sgh - s.cosio*overSin(sun.sh) + moon.sgh - s.cosio*overSin(moon.sh)
	d.sun = sun.coef
	d.moon = moon.coef

	switch {
	case d.xnq > 0.0034906585 && d.xnq < 0.0052359877:
		d.res = resonanceSynchronous
		d.initSynchronous(el, s)
	case d.xnq >= 0.00826 && d.xnq <= 0.00924 && el.ecc >= 0.5:
		d.res = resonanceHalfDay
		d.initHalfDay(el, s)
	}
	return d
}

// luniSolar computes the secular rates and periodic amplitudes caused by one
// perturbing body.
func luniSolar(p perturber, s *secular, eq, xnoi, sing, cosg float64, lowIncl bool) luniSolarTerms {
	a1 := p.zcosg*p.zcosh + p.zsing*p.zcosi*p.zsinh
	a3 := -p.zsing*p.zcosh + p.zcosg*p.zcosi*p.zsinh
	a7 := -p.zcosg*p.zsinh + p.zsing*p.zcosi*p.zcosh
	a8 := p.zsing * p.zsini
	a9 := p.zsing*p.zsinh + p.zcosg*p.zcosi*p.zcosh
	a10 := p.zcosg * p.zsini
	a2 := s.cosio*a7 + s.sinio*a8
	a4 := s.cosio*a9 + s.sinio*a10
	a5 := -s.sinio*a7 + s.cosio*a8
	a6 := -s.sinio*a9 + s.cosio*a10

	x1 := a1*cosg + a2*sing
	x2 := a3*cosg + a4*sing
	x3 := -a1*sing + a2*cosg
	x4 := -a3*sing + a4*cosg
	x5 := a5 * sing
	x6 := a6 * sing
	x7 := a5 * cosg
	x8 := a6 * cosg

	eosq := s.eosq
	z31 := 12*x1*x1 - 3*x3*x3
	z32 := 24*x1*x2 - 6*x3*x4
	z33 := 12*x2*x2 - 3*x4*x4
	z1 := 3*(a1*a1+a2*a2) + z31*eosq
	z2 := 6*(a1*a3+a2*a4) + z32*eosq
	z3 := 3*(a3*a3+a4*a4) + z33*eosq
	z11 := -6*a1*a5 + eosq*(-24*x1*x7-6*x3*x5)
	z12 := -6*(a1*a6+a3*a5) + eosq*(-24*(x2*x7+x1*x8)-6*(x3*x6+x4*x5))
	z13 := -6*a3*a6 + eosq*(-24*x2*x8-6*x4*x6)
	z21 := 6*a2*a5 + eosq*(24*x1*x5-6*x3*x7)
	z22 := 6*(a4*a5+a2*a6) + eosq*(24*(x2*x5+x1*x6)-6*(x4*x7+x3*x8))
	z23 := 6*a4*a6 + eosq*(24*x2*x6-6*x4*x8)
	z1 = z1 + z1 + s.betao2*z31
	z2 = z2 + z2 + s.betao2*z32
	z3 = z3 + z3 + s.betao2*z33

	s3 := p.cc * xnoi
	s2 := -0.5 * s3 / s.betao
	s4 := s3 * s.betao
	s1 := -15 * eq * s4
	s5 := x1*x3 + x2*x4
	s6 := x2*x3 + x1*x4
	s7 := x2*x4 - x1*x3

	t := luniSolarTerms{
		se:  s1 * p.zn * s5,
		si:  s2 * p.zn * (z11 + z13),
		sl:  -p.zn * s3 * (z1 + z3 - 14 - 6*eosq),
		sgh: s4 * p.zn * (z31 + z33 - 6),
		sh:  -p.zn * s2 * (z21 + z23),
		coef: periodicCoef{
			e2:  2 * s1 * s6,
			e3:  2 * s1 * s7,
			i2:  2 * s2 * z12,
			i3:  2 * s2 * (z13 - z11),
			l2:  -2 * s3 * z2,
			l3:  -2 * s3 * (z3 - z1),
			l4:  -2 * s3 * (-21 - 9*eosq) * p.ze,
			gh2: 2 * s4 * z32,
			gh3: 2 * s4 * (z33 - z31),
			gh4: -18 * s4 * p.ze,
			h2:  -2 * s2 * z22,
			h3:  -2 * s2 * (z23 - z21),
		},
	}
	if lowIncl {
		t.sh = 0
	}
	return t
}

func (d *deepSpaceTerms) initSynchronous(el meanElements, s *secular) {
	eosq := s.eosq
	aqnv := 1 / s.aodp
	g200 := 1 + eosq*(-2.5+0.8125*eosq)
	g310 := 1 + 2*eosq
	g300 := 1 + eosq*(-6+6.60937*eosq)
	f220 := 0.75 * (1 + s.cosio) * (1 + s.cosio)
	f311 := 0.9375*s.sinio*s.sinio*(1+3*s.cosio) - 0.75*(1+s.cosio)
	f330 := 1 + s.cosio
	f330 = 1.875 * f330 * f330 * f330

	del1 := 3 * d.xnq * d.xnq * aqnv * aqnv
	d.del2 = 2 * del1 * f220 * g200 * q22
	d.del3 = 3 * del1 * f330 * g300 * q33 * aqnv
	d.del1 = del1 * f311 * g310 * q31 * aqnv

	d.xlamo = el.anomaly + el.node + el.argp - d.thgr
	bfact := s.xmdot + s.omgdot + s.xnodot - thdt
	bfact += d.ssl + d.ssg + d.ssh
	d.xfact = bfact - d.xnq
}

func (d *deepSpaceTerms) initHalfDay(el meanElements, s *secular) {
	eq := el.ecc
	eosq := s.eosq
	eoc := eq * eosq
	aqnv := 1 / s.aodp

	var g211, g310, g322, g410, g422, g520, g521, g532, g533 float64
	g201 := -0.306 - (eq-0.64)*0.440
	if eq <= 0.65 {
		g211 = 3.616 - 13.247*eq + 16.290*eosq
		g310 = -19.302 + 117.390*eq - 228.419*eosq + 156.591*eoc
		g322 = -18.9068 + 109.7927*eq - 214.6334*eosq + 146.5816*eoc
		g410 = -41.122 + 242.694*eq - 471.094*eosq + 313.953*eoc
		g422 = -146.407 + 841.880*eq - 1629.014*eosq + 1083.435*eoc
		g520 = -532.114 + 3017.977*eq - 5740*eosq + 3708.276*eoc
	} else {
		g211 = -72.099 + 331.819*eq - 508.738*eosq + 266.724*eoc
		g310 = -346.844 + 1582.851*eq - 2415.925*eosq + 1246.113*eoc
		g322 = -342.585 + 1554.908*eq - 2366.899*eosq + 1215.972*eoc
		g410 = -1052.797 + 4758.686*eq - 7193.992*eosq + 3651.957*eoc
		g422 = -3581.69 + 16178.11*eq - 24462.77*eosq + 12422.52*eoc
		if eq <= 0.715 {
			g520 = 1464.74 - 4664.75*eq + 3763.64*eosq
		} else {
			g520 = -5149.66 + 29936.92*eq - 54087.36*eosq + 31324.56*eoc
		}
	}
	if eq < 0.7 {
		g533 = -919.2277 + 4988.61*eq - 9064.77*eosq + 5542.21*eoc
		g521 = -822.71072 + 4568.6173*eq - 8491.4146*eosq + 5337.524*eoc
		g532 = -853.666 + 4690.25*eq - 8624.77*eosq + 5341.4*eoc
	} else {
		g533 = -37995.78 + 161616.52*eq - 229838.2*eosq + 109377.94*eoc
		g521 = -51752.104 + 218913.95*eq - 309468.16*eosq + 146349.42*eoc
		g532 = -40023.88 + 170470.89*eq - 242699.48*eosq + 115605.82*eoc
	}

	cosio, sinio, theta2 := s.cosio, s.sinio, s.theta2
	sini2 := sinio * sinio
	f220 := 0.75 * (1 + 2*cosio + theta2)
	f221 := 1.5 * sini2
	f321 := 1.875 * sinio * (1 - 2*cosio - 3*theta2)
	f322 := -1.875 * sinio * (1 + 2*cosio - 3*theta2)
	f441 := 35 * sini2 * f220
	f442 := 39.3750 * sini2 * sini2
	f522 := 9.84375 * sinio * (sini2*(1-2*cosio-5*theta2) + 0.33333333*(-2+4*cosio+6*theta2))
	f523 := sinio * (4.92187512*sini2*(-2-4*cosio+10*theta2) + 6.56250012*(1+2*cosio-3*theta2))
	f542 := 29.53125 * sinio * (2 - 8*cosio + theta2*(-12+8*cosio+10*theta2))
	f543 := 29.53125 * sinio * (-2 - 8*cosio + theta2*(12+8*cosio-10*theta2))

	temp1 := 3 * d.xnq * d.xnq * aqnv * aqnv
	temp := temp1 * root22
	d.d2201 = temp * f220 * g201
	d.d2211 = temp * f221 * g211
	temp1 *= aqnv
	temp = temp1 * root32
	d.d3210 = temp * f321 * g310
	d.d3222 = temp * f322 * g322
	temp1 *= aqnv
	temp = 2 * temp1 * root44
	d.d4410 = temp * f441 * g410
	d.d4422 = temp * f442 * g422
	temp1 *= aqnv
	temp = temp1 * root52
	d.d5220 = temp * f522 * g520
	d.d5232 = temp * f523 * g532
	temp = 2 * temp1 * root54
	d.d5421 = temp * f542 * g521
	d.d5433 = temp * f543 * g533

	d.xlamo = el.anomaly + el.node + el.node - d.thgr - d.thgr
	bfact := s.xmdot + s.xnodot + s.xnodot - thdt - thdt
	bfact += d.ssl + d.ssh + d.ssh
	d.xfact = bfact - d.xnq
}

// sdp4 applies secular gravity, drag and lunar-solar effects for tsince
// minutes.
func (m *Model) sdp4(tsince float64) (longPeriod, string) {
	el, s, d := &m.el, &m.sec, m.deep

	xmdf := el.anomaly + s.xmdot*tsince
	tsq := tsince * tsince
	st := deepState{
		xll:    xmdf + s.xnodp*s.t2cof*tsq,
		omgadf: el.argp + s.omgdot*tsince,
		xnode:  el.node + s.xnodot*tsince + s.xnodcf*tsq,
		xn:     s.xnodp,
	}
	tempa := 1 - s.c1*tsince
	tempe := el.bstar * s.c4 * tsince

	d.secular(&st, el, tsince)
	if tempa <= 0 || st.xn <= 0 {
		return longPeriod{}, ReasonDecayed
	}

	a := math.Pow(xke/st.xn, twoThirds) * tempa * tempa
	st.em -= tempe
	d.periodics(&st, s, tsince)

	return longPeriod{
		a:     a,
		e:     st.em,
		omega: st.omgadf,
		xnode: st.xnode,
		xinc:  st.xinc,
		xl:    st.xll + st.omgadf + st.xnode,
	}, ""
}

// secular adds the lunar-solar secular rates and, for resonant orbits,
// integrates the resonance terms from epoch to t.
func (d *deepSpaceTerms) secular(st *deepState, el *meanElements, t float64) {
	st.xll += d.ssl * t
	st.omgadf += d.ssg * t
	st.xnode += d.ssh * t
	st.em = el.ecc + d.sse*t
	st.xinc = el.incl + d.ssi*t
	if st.xinc < 0 {
		st.xinc = -st.xinc
		st.xnode += math.Pi
		st.omgadf -= math.Pi
	}
	if d.res == resonanceNone {
		return
	}

	// Always restart from epoch so the result depends only on t.
	delt := stepp
	if t < 0 {
		delt = -stepp
	}
	atime, xni, xli := 0.0, d.xnq, d.xlamo
	var xndot, xnddt, xldot, ft float64
	for {
		xndot, xnddt = d.resonanceRates(xli, atime)
		xldot = xni + d.xfact
		xnddt *= xldot
		if math.Abs(t-atime) < stepp {
			ft = t - atime
			break
		}
		xli += xldot*delt + xndot*step2
		xni += xndot*delt + xnddt*step2
		atime += delt
	}

	st.xn = xni + xndot*ft + xnddt*ft*ft*0.5
	xl := xli + xldot*ft + xndot*ft*ft*0.5
	temp := -st.xnode + d.thgr + t*thdt
	if d.res == resonanceSynchronous {
		st.xll = xl - st.omgadf + temp
	} else {
		st.xll = xl + temp + temp
	}
}

// resonanceRates returns the first and (unscaled) second derivative of the
// mean motion at resonance angle xli, atime minutes from epoch.
func (d *deepSpaceTerms) resonanceRates(xli, atime float64) (xndot, xnddt float64) {
	if d.res == resonanceSynchronous {
		xndot = d.del1*math.Sin(xli-fasx2) + d.del2*math.Sin(2*(xli-fasx4)) + d.del3*math.Sin(3*(xli-fasx6))
		xnddt = d.del1*math.Cos(xli-fasx2) + 2*d.del2*math.Cos(2*(xli-fasx4)) + 3*d.del3*math.Cos(3*(xli-fasx6))
		return xndot, xnddt
	}

	xomi := d.omegaq + d.omgdot*atime
	x2omi := xomi + xomi
	x2li := xli + xli
	xndot = d.d2201*math.Sin(x2omi+xli-g22) + d.d2211*math.Sin(xli-g22) +
		d.d3210*math.Sin(xomi+xli-g32) + d.d3222*math.Sin(-xomi+xli-g32) +
		d.d4410*math.Sin(x2omi+x2li-g44) + d.d4422*math.Sin(x2li-g44) +
		d.d5220*math.Sin(xomi+xli-g52) + d.d5232*math.Sin(-xomi+xli-g52) +
		d.d5421*math.Sin(xomi+x2li-g54) + d.d5433*math.Sin(-xomi+x2li-g54)
	xnddt = d.d2201*math.Cos(x2omi+xli-g22) + d.d2211*math.Cos(xli-g22) +
		d.d3210*math.Cos(xomi+xli-g32) + d.d3222*math.Cos(-xomi+xli-g32) +
		d.d5220*math.Cos(xomi+xli-g52) + d.d5232*math.Cos(-xomi+xli-g52) +
		2*(d.d4410*math.Cos(x2omi+x2li-g44)+d.d4422*math.Cos(x2li-g44)+
			d.d5421*math.Cos(xomi+x2li-g54)+d.d5433*math.Cos(-xomi+x2li-g54))
	return xndot, xnddt
}

// periodics adds the lunar-solar long-period terms at t. Low inclination
// orbits use the Lyddane formulation to avoid the singularity at i = 0.
func (d *deepSpaceTerms) periodics(st *deepState, s *secular, t float64) {
	sinis, cosis := math.Sincos(st.xinc)

	ses, sis, sls, sghs, shs := d.sun.at(d.zmos+zns*t, zes)
	sel, sil, sll, sghl, shl := d.moon.at(d.zmol+znl*t, zel)
	pe := ses + sel
	pinc := sis + sil
	pl := sls + sll
	pgh := sghs + sghl
	ph := shs + shl

	st.xinc += pinc
	st.em += pe

	if d.xqncl >= lyddaneIncl {
		ph /= s.sinio
		pgh -= s.cosio * ph
		st.omgadf += pgh
		st.xnode += ph
		st.xll += pl
		return
	}

	sinok, cosok := math.Sincos(st.xnode)
	alfdp := sinis*sinok + ph*cosok + pinc*cosis*sinok
	betdp := sinis*cosok - ph*sinok + pinc*cosis*cosok
	st.xnode = mod2Pi(st.xnode)
	xls := st.xll + st.omgadf + cosis*st.xnode
	xls += pl + pgh - pinc*st.xnode*sinis
	xnoh := st.xnode
	st.xnode = math.Atan2(alfdp, betdp)
	if math.Abs(xnoh-st.xnode) > math.Pi {
		if st.xnode < xnoh {
			st.xnode += twoPi
		} else {
			st.xnode -= twoPi
		}
	}
	st.xll += pl
	st.omgadf = xls - st.xll - math.Cos(st.xinc)*st.xnode
}

// at evaluates the periodic terms for perturber mean anomaly zm.
func (c periodicCoef) at(zm, ze float64) (pe, pinc, pl, pgh, ph float64) {
	zf := zm + 2*ze*math.Sin(zm)
	sinzf, coszf := math.Sincos(zf)
	f2 := 0.5*sinzf*sinzf - 0.25
	f3 := -0.5 * sinzf * coszf
	pe = c.e2*f2 + c.e3*f3
	pinc = c.i2*f2 + c.i3*f3
	pl = c.l2*f2 + c.l3*f3 + c.l4*sinzf
	pgh = c.gh2*f2 + c.gh3*f3 + c.gh4*sinzf
	ph = c.h2*f2 + c.h3*f3
	return pe, pinc, pl, pgh, ph
}
