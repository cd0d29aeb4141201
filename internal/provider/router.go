package provider

import (
	"fmt"

	"github.com/dkotenko/llmcron/internal/task"
)

// Router maps a provider kind to its client and credential. It is a pure
// lookup: no state, no side effects, and it fails before any network call
// when the credential is absent.
type Router struct {
	clients map[task.ProviderKind]Client
}

// NewRouter creates a router over the given clients.
func NewRouter(clients ...Client) *Router {
	m := make(map[task.ProviderKind]Client, len(clients))
	for _, c := range clients {
		m[c.Kind()] = c
	}
	return &Router{clients: m}
}

// Resolve returns the client for kind together with its bound credential.
// Returns *MissingCredentialError when the credential string is empty.
func (r *Router) Resolve(kind task.ProviderKind, creds Credentials) (Client, string, error) {
	key := creds.Key(kind)
	if key == "" {
		return nil, "", &MissingCredentialError{Kind: kind}
	}
	client, ok := r.clients[kind]
	if !ok {
		return nil, "", fmt.Errorf("no client registered for provider %s", kind)
	}
	return client, key, nil
}
