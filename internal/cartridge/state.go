package cartridge

// State is a serializable snapshot of cartridge RAM and mapper-specific
// bank selection.
type State struct {
	SRAM [prgRAMSize]uint8
	Bank uint8 // only meaningful for bank-switching mappers (mapper 2)
}

// SaveState captures SRAM and, for mappers that have one, the current bank
// register.
func (c *Cartridge) SaveState() State {
	s := State{SRAM: c.sram}
	if m, ok := c.mapper.(*mapper2); ok {
		s.Bank = m.bank
	}
	return s
}

// LoadState restores SRAM and bank selection.
func (c *Cartridge) LoadState(s State) {
	c.sram = s.SRAM
	if m, ok := c.mapper.(*mapper2); ok {
		m.bank = s.Bank
	}
}
