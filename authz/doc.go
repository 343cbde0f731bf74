// Package authz gates every request with a fail-secure role check.
//
// A Registry holds the process-wide table of (method, path pattern) rules and
// the public allowlist. It is built once at startup, validated, and never
// mutated afterwards, so an Evaluator can share it across goroutines without
// locking. Requests that match neither a public rule nor a permission rule are
// denied for every role, admin included.
//
// Role checks answer "may this role call this endpoint". Whether the caller
// may touch a particular resource is answered separately by ValidateOwnership.
package authz
