// Package connectutil carries the pieces shared by every connect service: a
// JSON codec for plain Go request types and typed error mapping.
package connectutil

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// JSONCodec replaces connect's protojson codec so handlers can use plain
// structs as messages. It registers under the same "json" name.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return b, nil
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}

// Procedure builds a connect procedure path.
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// HandlerOptions are the options every service handler is built with.
func HandlerOptions() []connect.HandlerOption {
	return []connect.HandlerOption{connect.WithCodec(JSONCodec{})}
}

// ClientOptions pair with HandlerOptions for in-process and CLI clients.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(JSONCodec{})}
}
