// Package core defines the shared language of the LeapConnect system.
//
// This package contains:
//   - Catalog entities (Entity, FieldDefinition and their capability flags)
//   - The portable field-type taxonomy and write operations
//   - Request types (QueryRequest, WriteRequest) and Record
//   - Connection credentials and dialect configuration types
//   - The error taxonomy shared by every component
//
// The Golden Rule: pkg/core imports only stdlib and mapstructure.
// All other packages depend on core, not the reverse.
package core
