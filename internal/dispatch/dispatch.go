// Package dispatch implements the tool-call surface (C7): it binds
// named tool invocations with typed argument maps to the port service
// (C3), auto-negotiator (C5), and session store (C6), and wraps every
// result into the dual-form response the transport expects (§4.6).
package dispatch

import (
	"github.com/mosaic-labs/serialmcp/internal/enumerate"
	"github.com/mosaic-labs/serialmcp/internal/negotiate"
	"github.com/mosaic-labs/serialmcp/internal/portsvc"
	"github.com/mosaic-labs/serialmcp/internal/session"
)

// Result is the dual-form response named in §4.6: a human summary plus
// a structured map of machine-readable fields.
type Result struct {
	Text       string
	Structured map[string]any
}

// Dispatcher owns no state of its own beyond shared references to the
// components it fronts (§4.6).
type Dispatcher struct {
	Ports      *portsvc.Service
	Negotiator *negotiate.Negotiator
	Sessions   session.Store
	Enumerator enumerate.Enumerator
}

// New wires a Dispatcher to its backing components: the port service,
// the negotiator, the session store, and the port enumerator.
func New(ports *portsvc.Service, neg *negotiate.Negotiator, store session.Store, enum enumerate.Enumerator) *Dispatcher {
	return &Dispatcher{Ports: ports, Negotiator: neg, Sessions: store, Enumerator: enum}
}

type handlerFunc func(d *Dispatcher, args map[string]any) (Result, error)

var handlers = map[string]handlerFunc{
	"list_ports":                 (*Dispatcher).handleListPorts,
	"list_ports_extended":        (*Dispatcher).handleListPortsExtended,
	"open_port":                  (*Dispatcher).handleOpenPort,
	"write":                      (*Dispatcher).handleWrite,
	"read":                       (*Dispatcher).handleRead,
	"close":                      (*Dispatcher).handleClose,
	"status":                     (*Dispatcher).handleStatus,
	"metrics":                    (*Dispatcher).handleMetrics,
	"reconfigure_port":           (*Dispatcher).handleReconfigurePort,
	"detect_port":                (*Dispatcher).handleDetectPort,
	"open_port_auto":             (*Dispatcher).handleOpenPortAuto,
	"list_manufacturer_profiles": (*Dispatcher).handleListManufacturerProfiles,
	"create_session":             (*Dispatcher).handleCreateSession,
	"append_message":             (*Dispatcher).handleAppendMessage,
	"list_sessions":              (*Dispatcher).handleListSessions,
	"close_session":              (*Dispatcher).handleCloseSession,
	"list_messages":              (*Dispatcher).handleListMessages,
	"list_messages_range":        (*Dispatcher).handleListMessagesRange,
	"export_session":             (*Dispatcher).handleExportSession,
	"filter_messages":            (*Dispatcher).handleFilterMessages,
	"feature_index":              (*Dispatcher).handleFeatureIndex,
	"session_stats":              (*Dispatcher).handleSessionStats,
}

// ToolNames returns the full tool set (§4.6), for tools/list.
func ToolNames() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	return names
}

// Call validates and dispatches one named tool invocation, returning
// the dual-form Result or an InvalidArguments/component error.
func (d *Dispatcher) Call(name string, args map[string]any) (Result, error) {
	h, ok := handlers[name]
	if !ok {
		return Result{}, &UnknownToolError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	return h(d, args)
}

// UnknownToolError is returned when Call names a tool outside the
// declared set (§4.6 step 1 implicitly covers this: an unknown tool
// name is itself an invalid invocation).
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return "unknown tool: " + e.Name }
