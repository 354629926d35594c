// Package auth is the credential and session core of the controller.
//
// The device has exactly one administrator credential and at most one live
// session:
//   - Passwords are stored as PBKDF2-HMAC-SHA256 (100,000 iterations) under a
//     16-byte random salt, hex-encoded
//   - Session tokens are 32 random bytes, hex-encoded, compared in constant
//     time, and expire after an idle period measured from last use
//   - Issuing a token ends the previous session
//
// A fresh device holds the factory credential admin/admin but refuses
// login until Provision sets a real one. Provisioning is one-way; only a
// factory reset clears it.
//
// Store is the single owner of the live credential. Gateway is the only
// component touching the durable record, kept in the "controller" NVS
// namespace under the keys user, pwd_hash, pwd_salt and prov.
package auth
