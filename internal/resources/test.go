package resources

import (
	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/remotectx"
)

func init() {
	Register("test", "ping", ping)
}

// ping is the resource used to verify a bootstrap succeeded and a host
// can round-trip a call, mirroring the original test.ping(message="pong").
func ping(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	message := "pong"
	if m, ok := args["message"].(string); ok && m != "" {
		message = m
	}
	return envelope.Ok(h.Host().Host, map[string]interface{}{"message": message})
}
