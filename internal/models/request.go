package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Reference string   `json:"reference" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Quantity  Quantity `json:"quantity"`
}

// Quantity accepts a JSON number or a numeric string. Absent or null means 1.
type Quantity struct {
	Value int
	Set   bool
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		// accept integral floats such as 2.0
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("quantity %q is not an integer", raw)
		}
		n = int(f)
	}

	q.Value = n
	q.Set = true
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Int())
}

// Int returns the requested quantity, defaulting to 1.
func (q Quantity) Int() int {
	if !q.Set {
		return 1
	}
	return q.Value
}
