package dispatch

import (
	"fmt"
	"strings"

	"github.com/mosaic-labs/serialmcp/internal/negotiate"
	"github.com/mosaic-labs/serialmcp/internal/portsvc"
)

func (d *Dispatcher) handleListPorts(_ map[string]any) (Result, error) {
	ports, err := d.Enumerator.List()
	if err != nil {
		return Result{}, err
	}
	names := make([]any, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	return Result{
		Text:       fmt.Sprintf("found %d port(s)", len(ports)),
		Structured: map[string]any{"ports": names},
	}, nil
}

func (d *Dispatcher) handleListPortsExtended(_ map[string]any) (Result, error) {
	ports, err := d.Enumerator.List()
	if err != nil {
		return Result{}, err
	}
	out := make([]any, 0, len(ports))
	for _, p := range ports {
		out = append(out, map[string]any{
			"name":         p.Name,
			"manufacturer": p.Manufacturer,
			"vid":          p.VID,
			"pid":          p.PID,
			"serial":       p.Serial,
		})
	}
	return Result{
		Text:       fmt.Sprintf("found %d port(s)", len(ports)),
		Structured: map[string]any{"ports": out},
	}, nil
}

func configFromArgs(args map[string]any) (portsvc.Config, error) {
	portName, err := requireString(args, "port_name")
	if err != nil {
		return portsvc.Config{}, err
	}
	baud, err := requireUint32(args, "baud_rate")
	if err != nil {
		return portsvc.Config{}, err
	}
	cfg := portsvc.DefaultConfig(portName, baud)

	if v, ok := optString(args, "data_bits"); ok {
		db, err := parseDataBits("data_bits", v)
		if err != nil {
			return portsvc.Config{}, err
		}
		cfg.DataBits = db
	}
	if v, ok := optString(args, "parity"); ok {
		p, err := parseParity("parity", v)
		if err != nil {
			return portsvc.Config{}, err
		}
		cfg.Parity = p
	}
	if v, ok := optString(args, "stop_bits"); ok {
		sb, err := parseStopBits("stop_bits", v)
		if err != nil {
			return portsvc.Config{}, err
		}
		cfg.StopBits = sb
	}
	if v, ok := optString(args, "flow_control"); ok {
		fc, err := parseFlowControl("flow_control", v)
		if err != nil {
			return portsvc.Config{}, err
		}
		cfg.FlowControl = fc
	}
	if v, ok := optString(args, "terminator"); ok {
		cfg.Terminator = v
	}
	if ms, ok, err := optUint64(args, "timeout_ms"); err != nil {
		return portsvc.Config{}, err
	} else if ok {
		cfg.Timeout = durationFromMs(ms)
	}
	if ms, ok, err := optUint64(args, "idle_disconnect_ms"); err != nil {
		return portsvc.Config{}, err
	} else if ok {
		cfg.IdleDisconnectMs = ms
		cfg.HasIdleDisconnect = true
	}
	return cfg, nil
}

func (d *Dispatcher) handleOpenPort(args map[string]any) (Result, error) {
	cfg, err := configFromArgs(args)
	if err != nil {
		return Result{}, err
	}
	if err := d.Ports.Open(cfg); err != nil {
		return Result{}, err
	}
	return Result{
		Text:       "opened " + cfg.PortName,
		Structured: map[string]any{"port_name": cfg.PortName, "baud_rate": cfg.BaudRate},
	}, nil
}

func (d *Dispatcher) handleWrite(args map[string]any) (Result, error) {
	text, err := requireString(args, "text")
	if err != nil {
		return Result{}, err
	}
	res, err := d.Ports.Write(text)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("wrote %d byte(s)", res.BytesWritten),
		Structured: map[string]any{"bytes_written": res.BytesWritten},
	}, nil
}

func (d *Dispatcher) handleRead(_ map[string]any) (Result, error) {
	res, err := d.Ports.Read()
	if err != nil {
		return Result{}, err
	}
	structured := map[string]any{
		"text":           res.Text,
		"bytes_read":     res.BytesRead,
		"timeout_streak": res.TimeoutStreak,
	}
	text := fmt.Sprintf("read %d byte(s)", res.BytesRead)
	if res.Timeout {
		text = "read timed out"
	}
	if res.AutoClose != nil {
		structured["event"] = "auto_close"
		structured["reason"] = res.AutoClose.Reason
		structured["idle_ms"] = res.AutoClose.IdleMs
		structured["idle_close_count"] = res.AutoClose.IdleCloseCount
		text = "port auto-closed after idle timeout"
	}
	return Result{Text: text, Structured: structured}, nil
}

func (d *Dispatcher) handleClose(_ map[string]any) (Result, error) {
	res, err := d.Ports.Close()
	if err != nil {
		return Result{}, err
	}
	if !res.WasOpen {
		return Result{Text: "already closed", Structured: map[string]any{"was_open": false}}, nil
	}
	return Result{Text: "closed", Structured: map[string]any{"was_open": true}}, nil
}

func statusStructured(st portsvc.StatusResult) map[string]any {
	return map[string]any{
		"is_open":              st.IsOpen,
		"port_name":            st.Config.PortName,
		"baud_rate":            st.Config.BaudRate,
		"bytes_read_total":     st.Counters.BytesReadTotal,
		"bytes_written_total":  st.Counters.BytesWrittenTotal,
		"timeout_streak":       st.Counters.TimeoutStreak,
		"idle_close_count":     st.Counters.IdleCloseCount,
		"open_duration_ms":     st.OpenDurationMs,
		"last_activity_ms":     st.LastActivityMs,
	}
}

func (d *Dispatcher) handleStatus(_ map[string]any) (Result, error) {
	st := d.Ports.Status()
	text := "closed"
	if st.IsOpen {
		text = "open on " + st.Config.PortName
	}
	return Result{Text: text, Structured: statusStructured(st)}, nil
}

func (d *Dispatcher) handleMetrics(_ map[string]any) (Result, error) {
	m := d.Ports.Metrics()
	return Result{
		Text: fmt.Sprintf("read %d, wrote %d", m.Counters.BytesReadTotal, m.Counters.BytesWrittenTotal),
		Structured: map[string]any{
			"is_open":             m.IsOpen,
			"bytes_read_total":    m.Counters.BytesReadTotal,
			"bytes_written_total": m.Counters.BytesWrittenTotal,
			"timeout_streak":      m.Counters.TimeoutStreak,
			"idle_close_count":    m.Counters.IdleCloseCount,
			"open_duration_ms":    m.OpenDurationMs,
			"last_activity_ms":    m.LastActivityMs,
		},
	}, nil
}

func (d *Dispatcher) handleReconfigurePort(args map[string]any) (Result, error) {
	var p portsvc.Partial
	if v, ok := optString(args, "port_name"); ok {
		p.PortName = &v
	}
	if v, ok, err := optUint32(args, "baud_rate"); err != nil {
		return Result{}, err
	} else if ok {
		p.BaudRate = &v
	}
	if v, ok := optString(args, "data_bits"); ok {
		db, err := parseDataBits("data_bits", v)
		if err != nil {
			return Result{}, err
		}
		p.DataBits = &db
	}
	if v, ok := optString(args, "parity"); ok {
		pv, err := parseParity("parity", v)
		if err != nil {
			return Result{}, err
		}
		p.Parity = &pv
	}
	if v, ok := optString(args, "stop_bits"); ok {
		sb, err := parseStopBits("stop_bits", v)
		if err != nil {
			return Result{}, err
		}
		p.StopBits = &sb
	}
	if v, ok := optString(args, "flow_control"); ok {
		fc, err := parseFlowControl("flow_control", v)
		if err != nil {
			return Result{}, err
		}
		p.FlowControl = &fc
	}
	if v, ok := optString(args, "terminator"); ok {
		p.Terminator = &v
	}
	if ms, ok, err := optUint64(args, "timeout_ms"); err != nil {
		return Result{}, err
	} else if ok {
		dur := durationFromMs(ms)
		p.Timeout = &dur
	}
	if ms, ok, err := optUint64(args, "idle_disconnect_ms"); err != nil {
		return Result{}, err
	} else if ok {
		p.IdleDisconnectMs = &ms
		t := true
		p.HasIdleDisconnect = &t
	}

	if err := d.Ports.Reconfigure(p); err != nil {
		return Result{}, err
	}
	return Result{Text: "reconfigured", Structured: statusStructured(d.Ports.Status())}, nil
}

func hintsFromArgs(args map[string]any) (negotiate.Hints, error) {
	var h negotiate.Hints
	if v, ok := optString(args, "vid"); ok {
		h.VID = v
	}
	if v, ok := optString(args, "pid"); ok {
		h.PID = v
	}
	if raw, ok := args["suggested_bauds"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return h, invalid("suggested_bauds", "must be a list of integers")
		}
		for _, item := range list {
			n, err := toUint64(item)
			if err != nil {
				return h, invalid("suggested_bauds", "must be a list of integers")
			}
			h.SuggestedBauds = append(h.SuggestedBauds, uint32(n))
		}
	}
	if ms, ok, err := optUint64(args, "timeout_ms"); err != nil {
		return h, err
	} else if ok {
		h.TimeoutPerAttempt = durationFromMs(ms)
	}
	if v, ok := optBool(args, "restrict_to_suggested"); ok {
		h.RestrictToSuggested = v
	}
	return h, nil
}

func negotiatedStructured(p negotiate.Params) map[string]any {
	return map[string]any{
		"baud_rate": p.BaudRate,
		"strategy":  p.StrategyName,
		"confidence": p.Confidence,
	}
}

func (d *Dispatcher) handleDetectPort(args map[string]any) (Result, error) {
	portName, err := requireString(args, "port_name")
	if err != nil {
		return Result{}, err
	}
	hints, err := hintsFromArgs(args)
	if err != nil {
		return Result{}, err
	}

	var params negotiate.Params
	if strategy, ok := optString(args, "strategy"); ok {
		params, err = d.Negotiator.DetectPreferred(strategy, portName, hints)
	} else {
		params, err = d.Negotiator.Detect(portName, hints)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       fmt.Sprintf("detected %d baud via %s", params.BaudRate, params.StrategyName),
		Structured: negotiatedStructured(params),
	}, nil
}

func (d *Dispatcher) handleOpenPortAuto(args map[string]any) (Result, error) {
	portName, err := requireString(args, "port_name")
	if err != nil {
		return Result{}, err
	}
	hints, err := hintsFromArgs(args)
	if err != nil {
		return Result{}, err
	}
	params, err := d.Negotiator.Detect(portName, hints)
	if err != nil {
		return Result{}, err
	}

	cfg := portsvc.DefaultConfig(portName, params.BaudRate)
	cfg.DataBits = params.DataBits
	cfg.Parity = params.Parity
	cfg.StopBits = params.StopBits
	cfg.FlowControl = params.FlowControl
	if v, ok := optString(args, "terminator"); ok {
		cfg.Terminator = v
	}
	if ms, ok, err := optUint64(args, "idle_disconnect_ms"); err != nil {
		return Result{}, err
	} else if ok {
		cfg.IdleDisconnectMs = ms
		cfg.HasIdleDisconnect = true
	}

	if err := d.Ports.Open(cfg); err != nil {
		return Result{}, err
	}
	structured := negotiatedStructured(params)
	structured["port_name"] = portName
	return Result{
		Text:       fmt.Sprintf("opened %s at %d baud via %s", portName, params.BaudRate, params.StrategyName),
		Structured: structured,
	}, nil
}

func (d *Dispatcher) handleListManufacturerProfiles(_ map[string]any) (Result, error) {
	profiles := negotiate.ManufacturerProfiles
	out := make([]any, 0, len(profiles))
	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
		out = append(out, map[string]any{
			"vid":             p.VID,
			"name":            p.Name,
			"default_baud":    p.DefaultBaud,
			"candidate_bauds": p.CandidateBauds,
		})
	}
	return Result{
		Text:       fmt.Sprintf("%d manufacturer profile(s): %s", len(profiles), strings.Join(names, ", ")),
		Structured: map[string]any{"profiles": out},
	}, nil
}
