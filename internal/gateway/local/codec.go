package local

import "encoding/json"

// unmarshal decodes a stored document value.
func unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
