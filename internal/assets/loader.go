package assets

// Scaffolding file names.
const (
	PersonTemplate      = "person_template.toml"
	ExperiencesTemplate = "experiences_template.typ"
)

// Loader defines the contract for loading scaffolding files by name.
type Loader interface {
	// Load returns the content of the named file.
	// Returns ErrAssetNotFound if the file doesn't exist.
	// Returns ErrInvalidAssetName if the name is not a plain file name.
	Load(name string) (string, error)
}
