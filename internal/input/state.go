package input

// ControllerState is a serializable snapshot of one controller's button
// latch and shift register.
type ControllerState struct {
	Buttons       uint8
	Strobe        bool
	ShiftRegister uint8
}

// SaveState captures the controller's current state.
func (c *Controller) SaveState() ControllerState {
	return ControllerState{Buttons: c.buttons, Strobe: c.strobe, ShiftRegister: c.shiftRegister}
}

// LoadState restores a previously captured state.
func (c *Controller) LoadState(s ControllerState) {
	c.buttons = s.Buttons
	c.strobe = s.Strobe
	c.shiftRegister = s.ShiftRegister
}

// State is a serializable snapshot of both controller ports.
type State struct {
	Controller1 ControllerState
	Controller2 ControllerState
}

// SaveState captures both ports.
func (p *Ports) SaveState() State {
	return State{Controller1: p.Controller1.SaveState(), Controller2: p.Controller2.SaveState()}
}

// LoadState restores both ports.
func (p *Ports) LoadState(s State) {
	p.Controller1.LoadState(s.Controller1)
	p.Controller2.LoadState(s.Controller2)
}
