// Package envelope defines the single result type every remote call
// returns: either a leaf outcome (success data or a captured failure) or
// a chain of sub-envelopes produced by composing several resources.
//
// The original runtime carried three near-identical ExecutionResult
// definitions (in its runner, its result module, and its execution
// module) plus a separate ResultChain type for composed calls. This
// package reconciles all of that into one type with two shapes.
package envelope

import (
	"encoding/json"

	"github.com/griffithind/frog/internal/ferrors"
)

// Failure captures an error in a form that survives the wire.
type Failure struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Envelope is the result of executing one target against one host. When
// Results is non-nil, the envelope is a chain: Result and Failure are
// unused and the outcome is the concatenation of each child's outcome.
// Otherwise it is a leaf: exactly one of Result or Failure is set.
type Envelope struct {
	Host    string                 `json:"host"`
	Result  map[string]interface{} `json:"result,omitempty"`
	Failure *Failure               `json:"failure,omitempty"`
	Results []Envelope             `json:"results,omitempty"`
}

// Ok builds a successful leaf envelope.
func Ok(host string, result map[string]interface{}) Envelope {
	if result == nil {
		result = map[string]interface{}{}
	}
	return Envelope{Host: host, Result: result}
}

// Fail builds a failed leaf envelope from an error. Failure.Type holds a
// FrogError's "category/code", or the literal "error" for any other
// error; the error's Go type name is not recorded.
func Fail(host string, err error) Envelope {
	return Envelope{
		Host: host,
		Failure: &Failure{
			Message: err.Error(),
			Type:    errorTypeName(err),
		},
	}
}

func errorTypeName(err error) string {
	if fe, ok := ferrors.As(err); ok {
		return string(fe.Category) + "/" + fe.Code
	}
	return "error"
}

// IsChain reports whether e composes sub-envelopes rather than carrying a
// leaf result directly.
func (e Envelope) IsChain() bool {
	return e.Results != nil
}

// Success reports whether a leaf envelope succeeded. For chains it
// reports whether every sub-envelope succeeded.
func (e Envelope) Success() bool {
	if e.IsChain() {
		for _, r := range e.Results {
			if !r.Success() {
				return false
			}
		}
		return true
	}
	return e.Failure == nil
}

// Unwrap returns the leaf result map on success, or the captured error on
// failure. For a chain it unwraps the final sub-envelope, mirroring the
// original ResultChain.unwrap() behavior of surfacing the last outcome.
func (e Envelope) Unwrap() (map[string]interface{}, error) {
	if e.IsChain() {
		if len(e.Results) == 0 {
			return map[string]interface{}{}, nil
		}
		return e.Results[len(e.Results)-1].Unwrap()
	}
	if e.Failure != nil {
		return nil, ferrors.New(ferrors.CategoryRemoteCall, ferrors.CodeRemoteCall, e.Failure.Message)
	}
	return e.Result, nil
}

// Outcome renders the envelope into the plain value used for operator
// facing output: a leaf success/failure's inner data, or for a chain, the
// list of each sub-envelope's outcome.
func (e Envelope) Outcome() interface{} {
	if e.IsChain() {
		out := make([]interface{}, len(e.Results))
		for i, r := range e.Results {
			out[i] = r.Outcome()
		}
		return out
	}
	if e.Failure != nil {
		return map[string]interface{}{
			"message": e.Failure.Message,
			"type":    e.Failure.Type,
		}
	}
	return e.Result
}

// Serialize marshals the envelope to JSON.
func (e Envelope) Serialize() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategorySerial, ferrors.CodeSerialization, "failed to serialize envelope").
			WithContext("host", e.Host)
	}
	return data, nil
}

// Deserialize rebuilds an envelope from its JSON form.
func Deserialize(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, ferrors.Deserialization("envelope", err)
	}
	return e, nil
}
