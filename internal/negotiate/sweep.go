package negotiate

import "time"

var standardBauds = []uint32{
	9600, 115200, 19200, 38400, 57600,
	230400, 460800, 921600, 4800, 2400, 1200,
}

// StandardSweepStrategy (S3, priority 30) is the fallback: it opens at
// each standard baud in turn and returns the first one that opens
// successfully, with a low confidence unless an optional verification
// read yields data.
type StandardSweepStrategy struct{}

func (StandardSweepStrategy) Name() string  { return "standard_sweep" }
func (StandardSweepStrategy) Priority() int { return 30 }

func (s StandardSweepStrategy) Detect(open Opener, portName string, hints Hints) (Params, error) {
	timeout := hints.TimeoutPerAttempt
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	var lastErr error
	for _, baud := range standardBauds {
		h, err := open(portName, attemptConfig(baud, timeout))
		if err != nil {
			lastErr = err
			continue
		}

		confidence := 0.3
		buf := make([]byte, 64)
		if n, err := h.Read(buf); err == nil && n > 0 {
			confidence = 0.6
		}
		h.Close()

		return Params{
			BaudRate:     baud,
			DataBits:     8,
			StrategyName: s.Name(),
			Confidence:   clampConfidence(confidence),
		}, nil
	}
	return Params{}, newError("standard baud sweep could not open the port at any rate", lastErr)
}
