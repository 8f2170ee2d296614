// Package catalog is the gateway to the upstream product catalog (The Grid
// GraphQL API).
//
// Every product leaves this package in one normalized shape: the upstream
// list of profile infos is flattened to its first entry, with a fallback
// built from the product's own name and description when the list is empty.
// No product status filter is applied.
//
// Failures come in two kinds, both distinct from an empty result:
//
//   - UpstreamUnavailableError: the request never produced a 2xx response.
//   - UpstreamDataError: the upstream answered with GraphQL errors or a
//     payload that does not decode.
//
// Product lists are cached per type-id filter for a configurable TTL.
package catalog
