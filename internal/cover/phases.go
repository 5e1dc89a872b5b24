package cover

import "math"

// Each phase consumes elapsed milliseconds and returns what is left for the
// next one. ok is false when the phase absorbed the whole step and the tick
// must end there.

func (c *Cover) activationPhase(elapsed float64) (rest float64, ok bool) {
	if c.currentActivationTime <= 0 {
		return elapsed, true
	}
	if elapsed <= c.currentActivationTime {
		c.currentActivationTime -= elapsed
		return 0, false
	}
	rest = elapsed - c.currentActivationTime
	c.currentActivationTime = 0
	return rest, true
}

func (c *Cover) inertiaPhase(elapsed float64) (rest float64, ok bool) {
	inertiaTime := c.t.inertia.of(c.operation)
	sign := c.operation.sign()
	if inertiaTime <= 0 || c.inertia*sign >= 0.5 {
		return elapsed, true
	}

	c.inertia += sign * elapsed / inertiaTime
	clamped := clamp(c.inertia, -0.5, 0.5)
	overflow := c.inertia - clamped
	c.inertia = clamped
	if overflow == 0 {
		return 0, false
	}
	return sign * overflow * inertiaTime, true
}

// tiltPhase turns the slats before any translation happens. A tilt-only
// request settles here without touching the position.
func (c *Cover) tiltPhase(now uint32, elapsed float64) (rest float64, ok bool) {
	tiltTime := c.t.tilt.of(c.operation)
	sign := c.operation.sign()
	if tiltTime <= 0 || (c.tilt-0.5)*sign >= 0.5 {
		return elapsed, true
	}

	c.tilt += sign * elapsed / tiltTime
	overflow := c.tilt - 0.5 - clamp(c.tilt-0.5, -0.5, 0.5)
	c.tilt = clamp(c.tilt, Closed, Open)

	if !c.targetPosition.set && c.atTarget(c.tilt, c.targetTilt) {
		c.targetTilt = target{}
		c.tilt = roundPosition(c.tilt)
		c.arrive(now)
		return 0, false
	}

	if float64(now-c.lastPublishTime) > math.Min(tiltTime/5, publishInterval) {
		c.publish(false)
		c.lastPublishTime = now
	}

	if overflow == 0 {
		return 0, false
	}
	return sign * overflow * tiltTime, true
}

func (c *Cover) positionPhase(now uint32, elapsed float64) {
	sign := c.operation.sign()
	if (c.position-0.5)*sign < 0.5 {
		moveTime := c.t.move.of(c.operation)
		if moveTime > 0 {
			c.position = clamp(c.position+sign*elapsed/moveTime, Closed, Open)
		} else {
			c.position = clamp(0.5+sign*0.5, Closed, Open)
		}
	}

	if c.atTarget(c.position, c.targetPosition) {
		c.targetPosition = target{}
		c.position = roundPosition(c.position)
		c.arrive(now)
	}

	if float64(now-c.lastPublishTime) > publishInterval {
		c.publish(false)
		c.lastPublishTime = now
	}
}
