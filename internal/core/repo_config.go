package core

// RepoRules represents the structure of the .patch-warden.yml file.
type RepoRules struct {
	// Extensions eligible for review. Overrides ALLOWED_EXTENSIONS when non-empty.
	// The leading dot is optional. Example: [".go", "py"]
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// Directories whose files are never reviewed.
	// Example: ["vendor", "testdata"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Extra instructions appended to every review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`
}

// DefaultRepoRules returns rules that change nothing.
func DefaultRepoRules() *RepoRules {
	return &RepoRules{
		AllowedExtensions:  []string{},
		ExcludeDirs:        []string{},
		CustomInstructions: []string{},
	}
}
