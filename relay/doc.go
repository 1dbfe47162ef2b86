// Package relay implements relay selection for mullvad-rotate.
//
// The package is organized around four types:
//
//   - Catalog: indexes a snapshot of relay records (distinct countries,
//     cities and hostnames) and excludes bridges and inactive relays
//   - ConstraintSet: the immutable description of what the user asked for
//   - Engine: applies a ConstraintSet to a Catalog and resolves a single
//     rotation granularity with its ordered candidate list
//   - Selector: picks the next candidate relative to the current one
//
// # Selection Flow
//
//  1. The country stage narrows the catalog's countries
//  2. The city stage narrows city pairs when cities were requested
//  3. The server stage unions explicit servers with any expansions
//  4. The finest non-empty stage becomes the rotation granularity
//  5. Attribute predicates narrow the candidates of that granularity
//  6. The Selector advances past the current entity, or draws at random
//
// Every value in this package is built once per invocation and never
// mutated afterwards.
package relay
