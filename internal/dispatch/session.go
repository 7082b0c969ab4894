package dispatch

import (
	"fmt"

	"github.com/mosaic-labs/serialmcp/internal/session"
)

func (d *Dispatcher) handleCreateSession(args map[string]any) (Result, error) {
	deviceID, err := requireString(args, "device_id")
	if err != nil {
		return Result{}, err
	}
	portName, _ := optString(args, "port_name")

	sess, err := d.Sessions.CreateSession(deviceID, portName)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       "created session " + sess.ID,
		Structured: map[string]any{"id": sess.ID, "device_id": sess.DeviceID, "port_name": sess.PortName},
	}, nil
}

func (d *Dispatcher) handleAppendMessage(args map[string]any) (Result, error) {
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	role, err := requireString(args, "role")
	if err != nil {
		return Result{}, err
	}
	content, err := requireString(args, "content")
	if err != nil {
		return Result{}, err
	}
	direction, _ := optString(args, "direction")
	features, _ := optString(args, "features")

	var latency *int64
	if ms, ok, err := optInt(args, "latency_ms"); err != nil {
		return Result{}, err
	} else if ok {
		v := int64(ms)
		latency = &v
	}

	msg, err := d.Sessions.AppendMessage(sessionID, role, content, direction, features, latency)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("appended message %d", msg.ID),
		Structured: map[string]any{"message_id": msg.ID, "created_at": msg.CreatedAt},
	}, nil
}

func parseFilter(args map[string]any) (session.Filter, error) {
	v, ok := optString(args, "filter")
	if !ok {
		return session.FilterAll, nil
	}
	switch v {
	case "open":
		return session.FilterOpen, nil
	case "closed":
		return session.FilterClosed, nil
	case "all":
		return session.FilterAll, nil
	default:
		return session.FilterAll, invalid("filter", "must be one of open,closed,all")
	}
}

func (d *Dispatcher) handleListSessions(args map[string]any) (Result, error) {
	filter, err := parseFilter(args)
	if err != nil {
		return Result{}, err
	}
	limit, _, _ := optInt(args, "limit")

	sessions, err := d.Sessions.ListSessions(filter, limit)
	if err != nil {
		return Result{}, err
	}
	out := make([]any, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, map[string]any{
			"id": s.ID, "device_id": s.DeviceID, "port_name": s.PortName,
			"created_at": s.CreatedAt, "closed_at": s.ClosedAt,
		})
	}
	return Result{
		Text:       fmt.Sprintf("%d session(s)", len(sessions)),
		Structured: map[string]any{"sessions": out},
	}, nil
}

func (d *Dispatcher) handleCloseSession(args map[string]any) (Result, error) {
	id, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	if err := d.Sessions.CloseSession(id); err != nil {
		return Result{}, err
	}
	return Result{Text: "closed session " + id, Structured: map[string]any{"id": id}}, nil
}

func messagesStructured(msgs []session.Message) []any {
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id": m.ID, "session_id": m.SessionID, "role": m.Role,
			"direction": m.Direction, "content": m.Content, "features": m.Features,
			"latency_ms": m.LatencyMs, "created_at": m.CreatedAt,
		})
	}
	return out
}

func (d *Dispatcher) handleListMessages(args map[string]any) (Result, error) {
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	limit, _, _ := optInt(args, "limit")

	msgs, err := d.Sessions.ListMessages(sessionID, limit)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("%d message(s)", len(msgs)),
		Structured: map[string]any{"messages": messagesStructured(msgs)},
	}, nil
}

func (d *Dispatcher) handleListMessagesRange(args map[string]any) (Result, error) {
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	afterID, err := requireUint32(args, "after_id")
	if err != nil {
		return Result{}, err
	}
	limit, _, _ := optInt(args, "limit")

	msgs, err := d.Sessions.ListMessagesRange(sessionID, uint64(afterID), limit)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("%d message(s)", len(msgs)),
		Structured: map[string]any{"messages": messagesStructured(msgs)},
	}, nil
}

func (d *Dispatcher) handleExportSession(args map[string]any) (Result, error) {
	id, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	sess, msgs, err := d.Sessions.ExportSession(id)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text: fmt.Sprintf("exported session %s (%d message(s))", id, len(msgs)),
		Structured: map[string]any{
			"id": sess.ID, "device_id": sess.DeviceID, "port_name": sess.PortName,
			"created_at": sess.CreatedAt, "closed_at": sess.ClosedAt,
			"messages": messagesStructured(msgs),
		},
	}, nil
}

func (d *Dispatcher) handleFilterMessages(args map[string]any) (Result, error) {
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	role, _ := optString(args, "role")
	direction, _ := optString(args, "direction")
	featureContains, _ := optString(args, "feature_contains")
	limit, _, _ := optInt(args, "limit")

	msgs, err := d.Sessions.FilterMessages(sessionID, role, direction, featureContains, limit)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("%d matching message(s)", len(msgs)),
		Structured: map[string]any{"messages": messagesStructured(msgs)},
	}, nil
}

func (d *Dispatcher) handleFeatureIndex(args map[string]any) (Result, error) {
	sessionID, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	idx, err := d.Sessions.FeatureIndex(sessionID)
	if err != nil {
		return Result{}, err
	}
	counts := make(map[string]any, len(idx))
	for tok, n := range idx {
		counts[tok] = n
	}
	return Result{
		Text:       fmt.Sprintf("%d distinct feature token(s)", len(idx)),
		Structured: map[string]any{"features": counts},
	}, nil
}

func (d *Dispatcher) handleSessionStats(args map[string]any) (Result, error) {
	id, err := requireString(args, "session_id")
	if err != nil {
		return Result{}, err
	}
	stats, err := d.Sessions.SessionStats(id)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text: fmt.Sprintf("%d message(s)", stats.MessageCount),
		Structured: map[string]any{
			"message_count":   stats.MessageCount,
			"first_at":        stats.FirstAt,
			"last_at":         stats.LastAt,
			"rate_per_minute": stats.RatePerMinute,
		},
	}, nil
}
