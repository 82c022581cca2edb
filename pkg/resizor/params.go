package resizor

import (
	"fmt"
	"strconv"

	"github.com/tendant/resizor-go/pkg/resizor/signature"
)

// toParams renders caller supplied parameters as strings.
// Only scalar values are accepted; anything else yields ErrInvalidParam.
func toParams(extra map[string]any) (signature.Params, error) {
	params := make(signature.Params, len(extra)+2)
	for k, v := range extra {
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParam, k, err)
		}
		params[k] = s
	}
	return params, nil
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case fmt.Stringer:
		return x.String(), nil
	case nil:
		return "", fmt.Errorf("nil value")
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
