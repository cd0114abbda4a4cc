// Package plant models the two-tank process the supervisory server reads
// sensors from and drives actuators on.
package plant

import "tank_supervisor/internal/models"

// Provider is the sensor/actuator surface of the plant.
type Provider interface {
	ReadSensors() models.PlantState
	SetPumpInput(v uint16)
	SetValve1Open(open bool)
	SetValve2Open(open bool)
	TanksOn() bool
	PowerOn()
	PowerOff()
}
