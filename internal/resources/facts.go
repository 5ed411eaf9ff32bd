package resources

import (
	"context"

	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/facts"
	"github.com/griffithind/frog/internal/remotectx"
)

func init() {
	Register("facts", "gather", gather)
}

// gather runs every registered fact module and returns the merged map,
// the resource the runner calls instead of the host's cache entry when
// factcache.Cache.Get reports a miss.
func gather(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope {
	merged, errs := facts.Gather(context.Background())
	if len(errs) > 0 {
		messages := make([]interface{}, len(errs))
		for i, err := range errs {
			messages[i] = err.Error()
		}
		merged["gather_errors"] = messages
	}
	return envelope.Ok(h.Host().Host, merged)
}
