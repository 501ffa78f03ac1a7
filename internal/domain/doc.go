// Package domain defines the shared types and the contracts of the external
// collaborators: the browser surface, the config store, the server list
// repository and the native connector.
//
// No implementation code - just contracts.
package domain
