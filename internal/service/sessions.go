package service

import "context"

// SessionServer is the lifecycle surface of the supervisory TCP server.
type SessionServer interface {
	Start(port string) error
	Stop()
	Running() bool
}

// SessionService starts and stops the session server on its configured port.
type SessionService struct {
	server SessionServer
	port   string
}

func NewSessionService(server SessionServer, port string) *SessionService {
	return &SessionService{server: server, port: port}
}

func (s *SessionService) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.server.Start(s.port)
}

// Stop blocks until the session loop has exited.
func (s *SessionService) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.server.Stop()
	return nil
}

func (s *SessionService) Running() bool { return s.server.Running() }
