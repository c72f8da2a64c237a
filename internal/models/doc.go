// Package models defines the core domain models for the savings-circle
// backend.
//
// # Entities
//
//   - Group: a rotating savings group ("tontine") with a fixed contribution
//     amount and schedule
//   - Membership: links a user to a group, with an admin flag
//   - Cycle: one payout round with a designated recipient
//   - Payment: one member's contribution to one cycle
//   - Notification: lifecycle events delivered to members
//   - User: a registered account
//
// # Design Principles
//
//  1. **Avoid circular references**: relationships use ID strings, never
//     pointers between models.
//  2. **Canonical schema**: one snake_case shape shared by the store and the
//     JSON API; there is no second field-naming convention anywhere.
//  3. **Exact money**: contribution and payment amounts are decimals, never
//     floats.
//
// Timestamps are Unix seconds throughout.
package models
