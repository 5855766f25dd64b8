// Package types provides the wire types of the Langfuse public API used by the
// annotation service: annotation queues and their items, sessions, traces,
// scores and score configs.
//
// Field names and JSON tags follow the upstream camelCase representation so
// values can be proxied without reshaping.
package types
