// Package rpcserver implements the newline-delimited JSON-RPC 2.0
// transport named in §6.1: it reads requests from an inbound stream,
// dispatches tools/call invocations to the Dispatcher, and writes
// responses to an outbound stream, one complete JSON object per line.
package rpcserver

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosaic-labs/serialmcp/internal/dispatch"
)

const protocolVersion = "2024-11-05"

const maxLineSize = 16 * 1024 * 1024

// Server reads requests from in and writes responses to out, one JSON
// object per line (§6.1). It owns no component state directly —
// tool invocations are delegated to Dispatcher.
type Server struct {
	scanner          *bufio.Scanner
	out              io.Writer
	writeMu          sync.Mutex
	dispatcher       *dispatch.Dispatcher
	log              *logrus.Logger
	disableHeartbeat bool
}

// New constructs a Server over the given streams.
func New(in io.Reader, out io.Writer, d *dispatch.Dispatcher, log *logrus.Logger, disableHeartbeat bool) *Server {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Server{
		scanner:          scanner,
		out:              out,
		dispatcher:       d,
		log:              log,
		disableHeartbeat: disableHeartbeat,
	}
}

// Run processes requests until the inbound stream reaches a clean EOF,
// at which point it returns nil (the caller exits 0, §6.7). Any other
// read failure is returned as an error (non-zero exit).
func (s *Server) Run() error {
	if !s.disableHeartbeat {
		if err := s.writeMessage(Notification{JSONRPC: "2.0", Method: "_heartbeat", Params: map[string]any{}}); err != nil {
			return err
		}
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.handleLine(append([]byte(nil), line...))
	}
	if err := s.scanner.Err(); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleLine(line []byte) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.WithError(err).Warn("rpcserver: malformed request line, ignoring")
		return
	}

	switch req.Method {
	case "initialize":
		s.respond(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      map[string]any{"name": "serialmcpd"},
		}, nil)
	case "tools/list":
		defs := make([]ToolDefinition, 0, len(dispatch.ToolNames()))
		for _, name := range dispatch.ToolNames() {
			defs = append(defs, ToolDefinition{Name: name})
		}
		s.respond(req.ID, ToolsListResult{Tools: defs}, nil)
	case "tools/call":
		s.handleToolsCall(req.ID, req.Params)
	case "callTool":
		// The legacy method name predates the tools/call convention and
		// must be rejected rather than silently accepted (§6.1).
		s.respondError(req.ID, codeMethodNotFound, "method not found: callTool")
	default:
		if len(req.ID) > 0 {
			s.respondError(req.ID, codeMethodNotFound, "method not found: "+req.Method)
		}
	}
}

func (s *Server) handleToolsCall(id json.RawMessage, raw json.RawMessage) {
	var params ToolCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.respondError(id, codeInvalidParams, "invalid tools/call params")
		return
	}

	res, err := s.dispatcher.Call(params.Name, params.Arguments)
	if err != nil {
		var invalidArgs *dispatch.InvalidArgumentsError
		if errors.As(err, &invalidArgs) {
			s.respondError(id, codeInvalidParams, invalidArgs.Error())
			return
		}
		s.respondError(id, codeInternal, err.Error())
		return
	}

	s.respond(id, ToolCallResult{
		Content:           []ToolContent{{Type: "text", Text: res.Text}},
		StructuredContent: res.Structured,
	}, nil)
}

func (s *Server) respond(id json.RawMessage, result any, rpcErr *RPCError) {
	if len(id) == 0 {
		return // notification; no response expected
	}
	if err := s.writeMessage(Response{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}); err != nil {
		s.log.WithError(err).Error("rpcserver: failed to write response")
	}
}

func (s *Server) respondError(id json.RawMessage, code int, message string) {
	s.respond(id, nil, &RPCError{Code: code, Message: message})
}

func (s *Server) writeMessage(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = s.out.Write(data)
	return err
}
