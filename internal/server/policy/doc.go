// Package policy canonicalizes signup identifiers and enforces the password,
// email-domain and name rules applied before any identity is created.
//
// Every function here is pure. Normalizers are idempotent: applying one to
// its own output returns the same value.
package policy
