// Package ir provides the typed data model for roboplan: scene geometry,
// detected objects, commands, robot actions and action plans.
//
// This package contains value types and their validation only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are validated at construction (NewX) and at JSON decode time,
//     so an invalid plan or object is never observable by other packages
//   - Confidence values live in [0, 1]; out-of-range values are rejected, never clamped
//   - ActionType is a closed enumeration
//   - All JSON tags use snake_case
//   - Parameters is a sealed dynamic value union, never nil after decode
package ir
