package harness

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/possync/internal/pos"
)

const argsOp = "harness.args"

// argInt reads an integer argument. YAML gives ints; quoted numbers are
// accepted too.
func argInt(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, pos.Errorf(pos.ErrCodeValidation, argsOp, "missing arg %q", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, nil
		}
	}
	return 0, pos.Errorf(pos.ErrCodeValidation, argsOp, "arg %q: %v is not an integer", key, v)
}

// argString reads a string argument; a missing key reads as "".
func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// argDecimal reads a money argument. Quote amounts in YAML to keep their
// exact decimal spelling.
func argDecimal(args map[string]any, key string) (decimal.Decimal, error) {
	s := argString(args, key)
	if s == "" {
		return decimal.Zero, pos.Errorf(pos.ErrCodeValidation, argsOp, "missing arg %q", key)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, pos.Errorf(pos.ErrCodeValidation, argsOp, "arg %q: %v", key, err)
	}
	return d, nil
}
