package negotiate

import (
	"strings"
	"time"
)

var echoProbeBauds = []uint32{9600, 115200, 19200, 38400, 57600}

var echoProbes = []string{"AT\r\n", "\r\n", "ATI\r\n", "$PMTK000*32\r\n"}

var echoExpectedPrefixes = []string{"OK", "AT", "$GP"}

// EchoProbeStrategy (S2, priority 60) sends a small set of probe
// strings at each candidate baud and scores the response: an exact
// expected prefix scores 0.95, any non-empty response scores 0.6.
type EchoProbeStrategy struct{}

func (EchoProbeStrategy) Name() string  { return "echo_probe" }
func (EchoProbeStrategy) Priority() int { return 60 }

func bauds(hints Hints) []uint32 {
	if !hints.RestrictToSuggested || len(hints.SuggestedBauds) == 0 {
		return echoProbeBauds
	}
	suggested := make(map[uint32]bool, len(hints.SuggestedBauds))
	for _, b := range hints.SuggestedBauds {
		suggested[b] = true
	}
	var out []uint32
	for _, b := range echoProbeBauds {
		if suggested[b] {
			out = append(out, b)
		}
	}
	return out
}

func (s EchoProbeStrategy) Detect(open Opener, portName string, hints Hints) (Params, error) {
	timeout := hints.TimeoutPerAttempt
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	candidates := bauds(hints)
	if len(candidates) == 0 {
		return Params{}, ErrNotApplicable
	}

	var lastErr error
	for _, baud := range candidates {
		h, err := open(portName, attemptConfig(baud, timeout))
		if err != nil {
			lastErr = err
			continue
		}

		for _, probe := range echoProbes {
			if _, err := h.Write([]byte(probe)); err != nil {
				lastErr = err
				continue
			}
			buf := make([]byte, 256)
			n, err := h.Read(buf)
			if err != nil {
				lastErr = err
				continue
			}
			if n == 0 {
				continue
			}
			resp := string(buf[:n])
			confidence := 0.6
			for _, prefix := range echoExpectedPrefixes {
				if strings.HasPrefix(resp, prefix) {
					confidence = 0.95
					break
				}
			}
			h.Close()
			return Params{
				BaudRate:     baud,
				DataBits:     8,
				StrategyName: s.Name(),
				Confidence:   clampConfidence(confidence),
			}, nil
		}
		h.Close()
	}
	return Params{}, newError("echo probe got no response on any candidate baud", lastErr)
}
