package cover

// Call is a control request. A nil Position or Tilt clears any pending
// target on that axis.
type Call struct {
	Stop     bool
	Toggle   bool
	Position *float64
	Tilt     *float64
}

// Value returns a pointer to v, for building a Call.
func Value(v float64) *float64 { return &v }

// Control applies a request. It never moves the actuator itself; the next
// Tick acts on the new targets.
func (c *Cover) Control(call Call) {
	if call.Stop {
		c.targetPosition = target{}
		c.targetTilt = target{}
		c.transition(StateStopping)
		return
	}

	if call.Position != nil || call.Tilt != nil {
		c.targetPosition = targetFrom(call.Position)
		c.targetTilt = targetFrom(call.Tilt)

		switch c.state {
		case StateMoving:
			// A different direction is a clean stop followed by a restart.
			if c.requestedDirection() != c.operation {
				c.transition(StateStopping)
			}
		case StateCalibrating:
			if c.leavesExtreme() {
				c.transition(StateStopping)
			}
		}
	}

	if call.Toggle {
		c.toggle()
	}
}

// requestedDirection is the direction the pending targets imply, position
// first.
func (c *Cover) requestedDirection() Operation {
	switch {
	case c.targetPosition.set && c.targetPosition.value != c.position:
		return computeDirection(c.targetPosition.value, c.position)
	case c.targetTilt.set && c.targetTilt.value != c.tilt:
		return computeDirection(c.targetTilt.value, c.tilt)
	default:
		return OperationIdle
	}
}

func (c *Cover) leavesExtreme() bool {
	return leaves(c.position, c.targetPosition) || leaves(c.tilt, c.targetTilt)
}

func leaves(value float64, t target) bool {
	if !t.set {
		return false
	}
	return (value == Closed && t.value != Closed) || (value == Open && t.value != Open)
}

func (c *Cover) toggle() {
	if c.operation != OperationIdle {
		c.targetPosition = target{}
		c.targetTilt = target{}
		c.transition(StateStopping)
		return
	}

	// Without tilt support only the position decides.
	tiltless := !c.Traits().SupportsTilt
	switch {
	case c.position == Closed && (tiltless || c.tilt == Closed):
		c.targetPosition = targetAt(Open)
	case c.position == Open && (tiltless || c.tilt == Open):
		c.targetPosition = targetAt(Closed)
	case c.lastOperation == OperationClosing:
		if c.position != Open {
			c.targetPosition = targetAt(Open)
		} else {
			c.targetTilt = targetAt(Open)
		}
	default:
		if c.position != Closed {
			c.targetPosition = targetAt(Closed)
		} else {
			c.targetTilt = targetAt(Closed)
		}
	}
}
