// Package api defines the RPC surface of splithub: procedure names, message
// types and typed Connect clients. Messages are plain Go structs carried by
// a JSON codec, so no code generation step is needed.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// JSONCodec marshals messages with encoding/json. It registers under the
// "json" name so it serves application/json and application/connect+json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithJSON is the option every handler and client in this module uses.
func WithJSON() connect.Option {
	return connect.WithCodec(JSONCodec{})
}
