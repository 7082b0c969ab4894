package negotiate

// Profile is one row of the static manufacturer table keyed by USB VID.
type Profile struct {
	VID            string
	Name           string
	DefaultBaud    uint32
	CandidateBauds []uint32
}

// ManufacturerProfiles is the required table from §4.3 S1.
var ManufacturerProfiles = []Profile{
	{VID: "0x0403", Name: "FTDI", DefaultBaud: 115200, CandidateBauds: []uint32{115200, 9600, 57600, 230400}},
	{VID: "0x10C4", Name: "SiLabs", DefaultBaud: 9600, CandidateBauds: []uint32{9600, 115200, 57600}},
	{VID: "0x1A86", Name: "WCH", DefaultBaud: 9600, CandidateBauds: []uint32{9600, 115200, 57600}},
	{VID: "0x2341", Name: "Arduino", DefaultBaud: 9600, CandidateBauds: []uint32{9600, 115200, 57600}},
	{VID: "0x239A", Name: "Adafruit", DefaultBaud: 115200, CandidateBauds: []uint32{115200, 9600}},
	{VID: "0x2E8A", Name: "RPi", DefaultBaud: 115200, CandidateBauds: []uint32{115200, 9600}},
	{VID: "0x067B", Name: "Prolific", DefaultBaud: 9600, CandidateBauds: []uint32{9600, 115200, 57600}},
	{VID: "0x0483", Name: "ST", DefaultBaud: 115200, CandidateBauds: []uint32{115200, 9600}},
}

func lookupProfile(vid string) (Profile, bool) {
	for _, p := range ManufacturerProfiles {
		if p.VID == vid {
			return p, true
		}
	}
	return Profile{}, false
}

// ManufacturerStrategy (S1, priority 80) consults the static VID
// table and tries the default baud, then the candidates, returning the
// first baud at which the port opens.
type ManufacturerStrategy struct{}

func (ManufacturerStrategy) Name() string { return "manufacturer" }
func (ManufacturerStrategy) Priority() int { return 80 }

func (s ManufacturerStrategy) Detect(open Opener, portName string, hints Hints) (Params, error) {
	if hints.VID == "" {
		return Params{}, ErrNotApplicable
	}
	profile, ok := lookupProfile(hints.VID)
	if !ok {
		return Params{}, ErrNotApplicable
	}

	candidates := append([]uint32{profile.DefaultBaud}, profile.CandidateBauds...)
	tried := make(map[uint32]bool, len(candidates))

	var lastErr error
	for _, baud := range candidates {
		if tried[baud] {
			continue
		}
		tried[baud] = true

		h, err := open(portName, attemptConfig(baud, hints.TimeoutPerAttempt))
		if err != nil {
			lastErr = err
			continue
		}
		h.Close()

		confidence := 0.7
		if baud == profile.DefaultBaud {
			confidence = 0.8
		}
		if hints.PID != "" {
			confidence += 0.1
		}
		return Params{
			BaudRate:     baud,
			DataBits:     8,
			StrategyName: s.Name(),
			Confidence:   clampConfidence(confidence),
		}, nil
	}
	return Params{}, newError("manufacturer strategy exhausted candidates for "+hints.VID, lastErr)
}
