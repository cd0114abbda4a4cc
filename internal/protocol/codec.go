package protocol

import (
	"fmt"
	"time"

	"tank_supervisor/internal/models"
	"tank_supervisor/internal/netsock"
)

// FieldCount is the number of uint16 fields in a DATA payload.
const FieldCount = 7

// Conn is the subset of *netsock.Conn the codec needs.
type Conn interface {
	ReadUint16(timeout time.Duration) (uint16, error)
	WriteUint16(v uint16) error
	ReadString(timeout time.Duration) (string, error)
	WriteString(s string) error
	WriteBytes(b []byte) error
}

var _ Conn = (*netsock.Conn)(nil)

// ReadCommand reads one command code. Errors are passed through untouched so
// callers can tell netsock.ErrTimeout, netsock.ErrDisconnected and transport
// errors apart.
func ReadCommand(c Conn, timeout time.Duration) (Command, error) {
	v, err := c.ReadUint16(timeout)
	return Command(v), err
}

// WriteCommand writes one command code.
func WriteCommand(c Conn, cmd Command) error {
	return c.WriteUint16(uint16(cmd))
}

// ReadParam reads the single uint16 parameter of an actuator command.
func ReadParam(c Conn, timeout time.Duration) (uint16, error) {
	return c.ReadUint16(timeout)
}

// Credentials is the LOGIN payload.
type Credentials struct {
	Login    string
	Password string
}

// WriteLogin sends LOGIN followed by the credentials. A failure is a
// *StageError naming the part that could not be written.
func WriteLogin(c Conn, cr Credentials) error {
	if err := WriteCommand(c, CmdLogin); err != nil {
		return &StageError{Stage: StageCommand, Err: err}
	}
	if err := c.WriteString(cr.Login); err != nil {
		return &StageError{Stage: StageLogin, Err: err}
	}
	if err := c.WriteString(cr.Password); err != nil {
		return &StageError{Stage: StagePassword, Err: err}
	}
	return nil
}

// ReadLogin reads the LOGIN handshake with timeout applied to every field.
// A first command other than LOGIN yields ErrUnexpectedCommand.
func ReadLogin(c Conn, timeout time.Duration) (Credentials, error) {
	cmd, err := ReadCommand(c, timeout)
	if err != nil {
		return Credentials{}, &StageError{Stage: StageCommand, Err: err}
	}
	if cmd != CmdLogin {
		return Credentials{}, &StageError{Stage: StageCommand, Err: fmt.Errorf("%w: %s", ErrUnexpectedCommand, cmd)}
	}
	login, err := c.ReadString(timeout)
	if err != nil {
		return Credentials{}, &StageError{Stage: StageLogin, Err: err}
	}
	password, err := c.ReadString(timeout)
	if err != nil {
		return Credentials{}, &StageError{Stage: StagePassword, Err: err}
	}
	return Credentials{Login: login, Password: password}, nil
}

// EncodeState flattens a sample into the DATA field order
// {valve1, valve2, level1, level2, pumpInput, pumpFlow, overflowing}.
func EncodeState(s models.PlantState) [FieldCount]uint16 {
	return [FieldCount]uint16{
		boolField(s.Valve1Open),
		boolField(s.Valve2Open),
		s.Tank1Level,
		s.Tank2Level,
		s.PumpInput,
		s.PumpFlow,
		boolField(s.Overflowing),
	}
}

// DecodeState is the inverse of EncodeState. Any non-zero flag is true.
func DecodeState(f [FieldCount]uint16) models.PlantState {
	return models.PlantState{
		Valve1Open:  f[0] != 0,
		Valve2Open:  f[1] != 0,
		Tank1Level:  f[2],
		Tank2Level:  f[3],
		PumpInput:   f[4],
		PumpFlow:    f[5],
		Overflowing: f[6] != 0,
	}
}

// WriteData writes DATA followed by the seven state fields in one write.
func WriteData(c Conn, s models.PlantState) error {
	fields := EncodeState(s)
	code := uint16(CmdData)
	b := make([]byte, 0, 2*(FieldCount+1))
	b = append(b, byte(code>>8), byte(code))
	for _, f := range fields {
		b = append(b, byte(f>>8), byte(f))
	}
	return c.WriteBytes(b)
}

// ReadState reads the seven DATA fields (the DATA code itself has already
// been consumed by the caller).
func ReadState(c Conn, timeout time.Duration) (models.PlantState, error) {
	var f [FieldCount]uint16
	for i := range f {
		v, err := c.ReadUint16(timeout)
		if err != nil {
			return models.PlantState{}, fmt.Errorf("read state field %d: %w", i, err)
		}
		f[i] = v
	}
	return DecodeState(f), nil
}

// BoolParam converts an actuator parameter to a valve position.
func BoolParam(v uint16) bool { return v != 0 }

func boolField(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
