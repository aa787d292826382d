// Package domain defines the chat entities, identity, repository contracts and
// sentinel errors shared by the service, the RPC layer and the storage adapters.
//
// No implementation code lives here. Adapters depend on domain, never the other way.
package domain
