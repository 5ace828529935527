package a2a

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashArgs produces a short stable hash of a tool's arguments for execution
// logs and trace spans. Map keys are sorted by encoding/json, so equal
// argument maps hash equally.
func HashArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return "empty"
	}

	data, err := json.Marshal(args)
	if err != nil {
		// Unmarshalable values (channels, funcs) still deserve a stable-ish tag.
		data = []byte(fmt.Sprintf("%v", args))
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
