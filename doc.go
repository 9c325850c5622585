// Package identity implements a standalone identity service: account signup,
// email verification, credential login, and bearer token guarding.
//
// Account lifecycle:
//   - Accounts are created unverified. A signed verification token (3h TTL)
//     is mailed to the account's address; redeeming it flips IsVerified to
//     true exactly once. Re-signup of an unverified address re-issues the
//     token instead of creating a second account; the email unique index is
//     the only guard against concurrent signups.
//   - Verified is terminal for this workflow. Tokens are self-contained JWS
//     claims with no server-side revocation, so redeeming a still valid token
//     twice is an idempotent no-op.
//
// Collaborators (credential store, mail transport, HTTP engine) are injected:
// the store is a bun repository, mail sits behind the Mailer interface, and
// HTTP handlers run on go-router so any adapter (fiber by default) works.
package identity
