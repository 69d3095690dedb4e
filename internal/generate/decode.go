package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// unmarshalStrictJSON decodes into v and rejects trailing garbage after the
// JSON value.
func unmarshalStrictJSON(s string, v any) error {
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(v); err != nil {
		return err
	}

	var rest bytes.Buffer
	if _, err := rest.ReadFrom(dec.Buffered()); err == nil {
		if strings.TrimSpace(rest.String()) != "" {
			return fmt.Errorf("unexpected trailing data after JSON object")
		}
	}
	return nil
}
