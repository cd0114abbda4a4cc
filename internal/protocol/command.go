// Package protocol is the supervisory command vocabulary and the payload
// shapes carried on a netsock connection.
//
// Every message is a 16-bit command code followed by a command-specific
// payload:
//
//	LOGIN     login string, password string (client -> server, first message only)
//	GET_DATA  no payload                    -> DATA + 7 x uint16
//	SET_PUMP  uint16 pump input             -> OK | ERROR
//	SET_V1    uint16 (0 closed, else open)  -> OK | ERROR
//	SET_V2    uint16 (0 closed, else open)  -> OK | ERROR
//	LOGOUT    no payload, no reply
//
// ADMIN_OK, OK, ERROR and DATA only travel server -> client.
package protocol

import "fmt"

// Command is a 16-bit command code.
type Command uint16

const (
	CmdLogin   Command = 1001
	CmdAdminOK Command = 1002
	CmdOK      Command = 1003
	CmdError   Command = 1004
	CmdLogout  Command = 1005
	CmdGetData Command = 1006
	CmdData    Command = 1007
	CmdSetV1   Command = 1008
	CmdSetV2   Command = 1009
	CmdSetPump Command = 1010
)

func (c Command) String() string {
	switch c {
	case CmdLogin:
		return "LOGIN"
	case CmdAdminOK:
		return "ADMIN_OK"
	case CmdOK:
		return "OK"
	case CmdError:
		return "ERROR"
	case CmdLogout:
		return "LOGOUT"
	case CmdGetData:
		return "GET_DATA"
	case CmdData:
		return "DATA"
	case CmdSetV1:
		return "SET_V1"
	case CmdSetV2:
		return "SET_V2"
	case CmdSetPump:
		return "SET_PUMP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(c))
	}
}

// IsResponse reports whether c is a server -> client reply.
func (c Command) IsResponse() bool {
	switch c {
	case CmdAdminOK, CmdOK, CmdError, CmdData:
		return true
	}
	return false
}

// IsActuation reports whether c is one of the privileged actuator commands.
func (c Command) IsActuation() bool {
	return c == CmdSetPump || c == CmdSetV1 || c == CmdSetV2
}
