package cover

// Tick advances the state machine once. At most one transition is consumed.
func (c *Cover) Tick() {
	if c.state == StateIdle && !c.targetPosition.set && !c.targetTilt.set {
		return
	}

	now := c.clock.Millis()

	switch c.state {
	case StateCalibrating:
		c.tickCalibrating(now)
	case StateStopping:
		c.tickStopping(now)
	case StateIdle:
		c.tickIdle(now)
	case StateMoving:
		c.tickMoving(now)
	}
}

// tickCalibrating holds the actuator against the end stop until the
// recalibration time has passed.
func (c *Cover) tickCalibrating(now uint32) {
	if float64(now-c.lastRecomputeTime) < c.currentRecalibrationTime {
		return
	}
	c.targetPosition = target{}
	c.targetTilt = target{}
	c.transition(StateStopping)
}

func (c *Cover) tickStopping(now uint32) {
	c.actuator.Stop()
	if c.operation != OperationIdle {
		c.interlockedTime = now
		c.interlockedDirection = c.operation.opposite()
	} else {
		c.interlockedDirection = OperationIdle
	}

	c.lastOperation = c.operation
	c.operation = OperationIdle
	c.position = roundPosition(c.position)
	c.tilt = roundPosition(c.tilt)
	c.transition(StateIdle)
	c.publish(true)
}

// tickIdle resolves a direction for the pending targets and starts the
// actuator unless the interlock defers it.
func (c *Cover) tickIdle(now uint32) {
	op := OperationIdle
	if c.targetPosition.set {
		op = computeDirection(c.targetPosition.value, c.position)
		if op == OperationIdle {
			c.targetPosition = target{}
			if c.targetTilt.set {
				op = computeDirection(c.targetTilt.value, c.tilt)
			}
		}
	} else {
		op = computeDirection(c.targetTilt.value, c.tilt)
	}

	if op == OperationIdle {
		op = c.recalibrationDirection()
		if op == OperationIdle {
			c.targetPosition = target{}
			c.targetTilt = target{}
			return
		}
		// Already sitting at an extreme: run into the end stop again.
		if op == OperationClosing {
			c.targetPosition = targetAt(Closed)
		} else {
			c.targetPosition = targetAt(Open)
		}
	}

	if op == c.interlockedDirection && float64(now-c.interlockedTime) < float64(c.t.interlockWait) {
		return
	}

	c.operation = op
	if op == OperationClosing {
		c.actuator.StartClosing()
	} else {
		c.actuator.StartOpening()
	}
	c.currentRecalibrationTime = c.t.recalibration.of(op)
	c.currentActivationTime = c.t.activation.of(op)
	c.lastRecomputeTime = now
	c.transition(StateMoving)
}

// recalibrationDirection returns the direction toward the extreme the cover
// rests at, or idle when it is not at one or no hold is configured for it.
func (c *Cover) recalibrationDirection() Operation {
	if !c.atExtreme() {
		return OperationIdle
	}
	op := OperationOpening
	if c.position == Closed {
		op = OperationClosing
	}
	if c.t.recalibration.of(op) == 0 {
		return OperationIdle
	}
	return op
}

func (c *Cover) tickMoving(now uint32) {
	elapsed := float64(now - c.lastRecomputeTime)
	c.lastRecomputeTime = now

	var ok bool
	if elapsed, ok = c.activationPhase(elapsed); !ok {
		return
	}
	if elapsed, ok = c.inertiaPhase(elapsed); !ok {
		return
	}
	if elapsed, ok = c.tiltPhase(now, elapsed); !ok {
		return
	}
	c.positionPhase(now, elapsed)
}

// arrive ends a move whose target was reached, holding at an extreme when a
// recalibration time is configured for the direction just run.
func (c *Cover) arrive(now uint32) {
	c.lastRecomputeTime = now
	c.lastPublishTime = now
	if c.currentRecalibrationTime > 0 && c.atExtreme() {
		c.transition(StateCalibrating)
		c.publish(false)
		return
	}
	c.transition(StateStopping)
}
