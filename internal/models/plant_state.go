package models

import "fmt"

// PlantState is one sample of the two-tank plant sensors.
type PlantState struct {
	Valve1Open  bool   `json:"valve1_open"`
	Valve2Open  bool   `json:"valve2_open"`
	Tank1Level  uint16 `json:"tank1_level"` // 0..65535
	Tank2Level  uint16 `json:"tank2_level"` // 0..65535
	PumpInput   uint16 `json:"pump_input"`  // 0..65535
	PumpFlow    uint16 `json:"pump_flow"`   // 0..65535
	Overflowing bool   `json:"overflowing"`
}

// String renders the sample the way the console operator screens print it.
func (s PlantState) String() string {
	return fmt.Sprintf("V1=%s V2=%s H1=%d H2=%d PumpInput=%d PumpFlow=%d Overflow=%t",
		openClosed(s.Valve1Open), openClosed(s.Valve2Open),
		s.Tank1Level, s.Tank2Level, s.PumpInput, s.PumpFlow, s.Overflowing)
}

func openClosed(open bool) string {
	if open {
		return "OPEN"
	}
	return "CLOSED"
}
