// Package auth implements the authentication core for the facilities
// management backend: credential verification, password hashing, JWT
// issuance/refresh, and the identity contract consumed by route handlers.
//
// The authenticatable record is the Stakeholder (admins, FM managers,
// technicians). Stakeholders are provisioned administratively, never via
// public self-registration; see ProvisionStakeholderHandler.
//
// Tokens:
//   - Access tokens are short-lived and embed a claims snapshot (role, name)
//     taken at issuance, so a role change only becomes visible on the next
//     refresh. The access TTL is the maximum staleness window.
//   - Refresh tokens are long-lived, carry no claims snapshot, and can only
//     mint new access tokens after a fresh active-status check.
//   - Tokens are stateless. There is no revocation list; rotating the
//     signing key invalidates every outstanding token and is the documented
//     operational escape hatch.
//
// Password hashes use bcrypt. Digests produced by the legacy
// pbkdf2:sha256 scheme still verify so migrated accounts keep working, but
// every new hash is bcrypt.
package auth
