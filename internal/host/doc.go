// Package host implements the dashboard-side frame registry: creation,
// tracking, and routing for the guest frames a devwatch dashboard embeds.
//
// Components:
//   - Registry: id-keyed frame table; Create/GetByID/Remove, batch bootstrap
//   - Adapter: per-frame protocol endpoint bound to the guest's transport
//   - Container/Mount: collaborator interfaces to the surrounding UI layer
//   - Diagnostics: append-only log of frame-creation failures
//   - AuthService: dashboard sign-in backing the auth-check protocol reply
//
// Failure isolation: one frame failing to build aborts only that frame. The
// caller receives nil, a diagnostic is appended, and a bootstrap batch keeps
// going. Duplicate frame ids are idempotent: the existing adapter is
// returned with a warning, and no second scaffold is ever built.
package host
