// Package auth implements the session core of the HBIU learning management
// system: credential persistence, identity operations against the LMS API,
// the session lifecycle state machine, and role based access gating.
//
// Session lifecycle:
//   - SessionManager owns the only mutable Session. It rehydrates persisted
//     state on Init, re-validates real tokens against the backend, and moves
//     through init -> validating -> authenticated/anonymous. A network failure
//     during re-validation keeps the cached profile (availability over
//     freshness); an authorization failure purges it.
//   - SessionStore implementations (in-memory, SQLite via Bun) persist the
//     bearer token and the serialized profile under the same two keys the web
//     client used, and treat a corrupt profile as "no session" rather than an
//     error.
//
// Access control:
//   - UserRole is a closed enum (student, lecturer, admin, college_admin) with
//     a guest fallback for missing or unknown values.
//   - RouteGuard turns a session Snapshot plus an optional role allow-list into
//     a Verdict (wait, redirect, deny, allow) so host shells never redirect
//     while rehydration is still in flight.
//   - DashboardRoute maps every role to its landing page and is total, so the
//     post-login redirect and navigation links cannot disagree.
//
// Offline mode:
//   - OfflineClient answers identity operations from a fixed table of four demo
//     identities, minting tokens with the reserved mock prefix. Stored mock
//     tokens are trusted only while offline mode is enabled; otherwise they are
//     purged before any state is published.
package auth
