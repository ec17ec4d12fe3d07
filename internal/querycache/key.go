package querycache

import (
	"net/url"
)

// Key identifies one cacheable read: resource name, canonically ordered
// filter parameters and the credential the read was issued with. Two
// reads with equal keys are the same logical read and share one fetch;
// any component change makes prior cached data unreachable.
type Key struct {
	Resource   string
	Params     string
	Credential string
}

// NewKey builds a key. url.Values.Encode sorts parameter names, so
// equal filter sets produce equal keys regardless of insertion order.
func NewKey(resource string, params url.Values, credential string) Key {
	return Key{
		Resource:   resource,
		Params:     params.Encode(),
		Credential: credential,
	}
}

// id is the map key. The unit separator cannot appear in a resource
// name or an encoded query string.
func (k Key) id() string {
	return k.Resource + "\x1f" + k.Params + "\x1f" + k.Credential
}
