package netdicom

import (
	"context"
	"net"
)

// Server accepts DICOM Upper Layer connections and runs Serve over each
// one in its own goroutine: one goroutine per connection, no worker pool
// or connection limit. A busy SCP backs up at the TCP accept queue
// rather than inside this process.
type Server struct {
	Config   Config
	Handlers Handlers
}

// ListenAndServe opens a TCP listener at addr and serves it until ctx is
// done or the listener errors.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections off lis until ctx is done or lis.Accept
// errors, handling each on its own goroutine.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()
	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	assoc, err := Accept(ctx, conn, s.Config)
	if err != nil {
		log.Warnf("netdicom: association setup from %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	if err := Serve(ctx, assoc, s.Handlers); err != nil {
		log.Warnf("netdicom: association with %s ended: %v", assoc.callingAETitle, err)
	}
}
