package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Outcome is the result of one backend call. It is always exactly one of
// Ok or *Failure; callers switch on the concrete type.
type Outcome interface {
	outcome()
}

// Ok carries a 2xx response body verbatim. Payload is JSON "null" when the
// server sent no body.
type Ok struct {
	Status  int
	Payload json.RawMessage
}

func (Ok) outcome() {}

// Failure is a human-readable error for any call that did not succeed.
// Status is 0 when no HTTP response was received.
type Failure struct {
	Message string
	Status  int
}

func (*Failure) outcome() {}

func (f *Failure) Error() string {
	return f.Message
}

// Unauthorized reports whether the backend rejected the credentials.
func (f *Failure) Unauthorized() bool {
	return f.Status == http.StatusUnauthorized || f.Status == http.StatusForbidden
}

// Transport reports whether the call failed before an HTTP response arrived.
func (f *Failure) Transport() bool {
	return f.Status == 0
}

// Decode unmarshals an Ok payload into T. A *Failure outcome is returned
// unchanged as the error; an undecodable payload becomes a Failure too.
func Decode[T any](o Outcome) (T, error) {
	var zero T
	switch v := o.(type) {
	case Ok:
		var out T
		if err := json.Unmarshal(v.Payload, &out); err != nil {
			return zero, &Failure{Message: fmt.Sprintf("unexpected response from server: %v", err), Status: v.Status}
		}
		return out, nil
	case *Failure:
		return zero, v
	default:
		return zero, &Failure{Message: "no response"}
	}
}
