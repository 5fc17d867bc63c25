package types

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/go-errors/errors"
)

// Size is a byte count given either as an integer or as a human readable
// string such as "4MiB".
type Size string

// UnmarshalTOML accepts integers and strings.
func (s *Size) UnmarshalTOML(v interface{}) error {
	switch x := v.(type) {
	case string:
		*s = Size(x)
	case int64:
		*s = Size(strconv.FormatInt(x, 10))
	default:
		return errors.Errorf("invalid size %v", v)
	}
	return nil
}

// UnmarshalJSON accepts numbers and strings.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Size(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Errorf("invalid size %s", data)
	}
	*s = Size(n.String())
	return nil
}
