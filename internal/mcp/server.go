package mcp

import (
	"context"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/urbanmesh/zonegate/internal/tools"
)

// Server speaks MCP over stdio: newline-delimited JSON-RPC 2.0 objects
// on stdin/stdout, logs on stderr.
type Server struct {
	registry *tools.Registry
	handler  *Handler
}

func NewServer(registry *tools.Registry) *Server {
	return &Server{
		registry: registry,
		handler:  NewHandler(registry),
	}
}

// Serve blocks until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info("serving MCP over stdio")

	stream := jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handler.Handle))

	select {
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		log.Info("client disconnected")
		return nil
	}
}

func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// stdrwc adapts stdin/stdout into the single ReadWriteCloser jsonrpc2
// expects.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

var _ io.ReadWriteCloser = stdrwc{}
