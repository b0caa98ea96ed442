// Package redact masks secrets in source fragments before they are quoted
// in issue messages.
//
// Detection uses regex heuristics for the secret shapes that turn up in C#
// code and configuration: connection-string passwords and account keys,
// shared access signatures, bearer tokens, JWTs, private key blocks, AWS
// access keys and quoted secret assignments. Where a pattern has a key part
// (Password=, AccountKey=) the key is kept and only the value is masked, so
// the message still says what was found.
package redact
