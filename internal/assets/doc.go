// Package assets provides the starter files used to scaffold a new person.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in starter files (go:embed)
//	    ├── FilesystemLoader  - files from the templates directory
//	    └── Resolver          - templates directory first, built-ins as fallback
//
// The built-ins let `cvgen create` produce a usable person even when the
// templates directory ships no person_template.toml or
// experiences_template.typ. A file present on disk always wins.
//
// # Security
//
// Asset names are single file names. FilesystemLoader resolves symlinks and
// verifies every path stays within its base directory.
package assets
