package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mosaic-labs/serialmcp/internal/serialio"
)

// InvalidArgumentsError reports a schema-validation failure (§4.6 step 1).
type InvalidArgumentsError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *InvalidArgumentsError {
	return &InvalidArgumentsError{Field: field, Reason: reason}
}

func requireString(args map[string]any, field string) (string, error) {
	v, ok := args[field]
	if !ok {
		return "", invalid(field, "required")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", invalid(field, "must be a non-empty string")
	}
	return s, nil
}

func optString(args map[string]any, field string) (string, bool) {
	v, ok := args[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func requireUint32(args map[string]any, field string) (uint32, error) {
	v, ok := args[field]
	if !ok {
		return 0, invalid(field, "required")
	}
	n, err := toUint64(v)
	if err != nil {
		return 0, invalid(field, "must be a non-negative integer")
	}
	return uint32(n), nil
}

func optUint32(args map[string]any, field string) (uint32, bool, error) {
	v, ok := args[field]
	if !ok {
		return 0, false, nil
	}
	n, err := toUint64(v)
	if err != nil {
		return 0, false, invalid(field, "must be a non-negative integer")
	}
	return uint32(n), true, nil
}

func optUint64(args map[string]any, field string) (uint64, bool, error) {
	v, ok := args[field]
	if !ok {
		return 0, false, nil
	}
	n, err := toUint64(v)
	if err != nil {
		return 0, false, invalid(field, "must be a non-negative integer")
	}
	return n, true, nil
}

func optInt(args map[string]any, field string) (int, bool, error) {
	v, ok := args[field]
	if !ok {
		return 0, false, nil
	}
	n, err := toUint64(v)
	if err != nil {
		return 0, false, invalid(field, "must be an integer")
	}
	return int(n), true, nil
}

func optBool(args map[string]any, field string) (bool, bool) {
	v, ok := args[field]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("negative")
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative")
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative")
		}
		return uint64(n), nil
	case string:
		return strconv.ParseUint(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// parseDataBits accepts both the symbolic spellings from §6.4
// ("five".."eight") and the numeric ones ("5".."8").
func parseDataBits(field, v string) (serialio.DataBits, error) {
	switch strings.ToLower(v) {
	case "5", "five":
		return serialio.DataBits5, nil
	case "6", "six":
		return serialio.DataBits6, nil
	case "7", "seven":
		return serialio.DataBits7, nil
	case "8", "eight":
		return serialio.DataBits8, nil
	default:
		return 0, invalid(field, "must be one of 5,6,7,8 or five,six,seven,eight")
	}
}

func parseParity(field, v string) (serialio.Parity, error) {
	switch strings.ToLower(v) {
	case "none":
		return serialio.ParityNone, nil
	case "odd":
		return serialio.ParityOdd, nil
	case "even":
		return serialio.ParityEven, nil
	default:
		return 0, invalid(field, "must be one of none,odd,even")
	}
}

func parseStopBits(field, v string) (serialio.StopBits, error) {
	switch strings.ToLower(v) {
	case "1", "one":
		return serialio.StopBitsOne, nil
	case "2", "two":
		return serialio.StopBitsTwo, nil
	default:
		return 0, invalid(field, "must be one of one,two")
	}
}

func parseFlowControl(field, v string) (serialio.FlowControl, error) {
	switch strings.ToLower(v) {
	case "none":
		return serialio.FlowControlNone, nil
	case "hardware":
		return serialio.FlowControlHardware, nil
	case "software":
		return serialio.FlowControlSoftware, nil
	default:
		return 0, invalid(field, "must be one of none,hardware,software")
	}
}

func durationFromMs(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
