package cpu

// State is a serializable snapshot of the CPU's register file.
type State struct {
	A, X, Y, SP    uint8
	PC             uint16
	C, Z, I, D, B, V, N bool
	IllegalOpcodes uint64
}

// SaveState captures the current register file.
func (c *CPU) SaveState() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC,
		C: c.C, Z: c.Z, I: c.I, D: c.D, B: c.B, V: c.V, N: c.N,
		IllegalOpcodes: c.IllegalOpcodes,
	}
}

// LoadState restores a previously captured register file. Pending
// interrupt lines are not restored; the caller is expected to be between
// instructions when loading.
func (c *CPU) LoadState(s State) {
	c.A, c.X, c.Y, c.SP, c.PC = s.A, s.X, s.Y, s.SP, s.PC
	c.C, c.Z, c.I, c.D, c.B, c.V, c.N = s.C, s.Z, s.I, s.D, s.B, s.V, s.N
	c.IllegalOpcodes = s.IllegalOpcodes
}
