// Package ir provides the data model shared by every exgen package.
//
// This package contains type definitions, canonical serialization and
// content hashes only. All other internal packages import ir; ir imports
// nothing internal. This keeps ir the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Declaration order is semantic: Variables and Assignments are ordered
//     slices, and their JSON/YAML mapping forms are decoded in document order
//   - Template is read-only once loaded; ExerciseInstance is a value object
//   - JSON field names follow the external record shape (camelCase)
//   - Canonical JSON (sorted keys, NFC strings) is the only input to hashes
package ir
