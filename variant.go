package cvgen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-cvgen/internal/fileutil"
)

// BaseTemplate is imported by every variant's primary file.
const BaseTemplate = "template.typ"

// DefaultVariantName is used when a request leaves the variant empty.
const DefaultVariantName = "default"

// Variant describes one template layout. Primary and Logo are file names
// under the template root.
type Variant struct {
	Name        string
	Primary     string
	Logo        string // staged as company_logo.png unless the person has one
	Description string
}

// variants is the single table mapping variant names to their files.
// Adding a layout means adding a row here and its files under the template root.
var variants = []Variant{
	{
		Name:        DefaultVariantName,
		Primary:     "cv.typ",
		Description: "Standard CV layout",
	},
	{
		Name:        "keyteo",
		Primary:     "cv_keyteo.typ",
		Logo:        "keyteo_logo.png",
		Description: "CV with Keyteo branding and logo at the top of every page",
	},
	{
		Name:        "keyteo_full",
		Primary:     "cv_keyteo_full.typ",
		Logo:        "keyteo_logo.png",
		Description: "Full-length Keyteo CV with branding",
	},
}

// Variants returns all known variants in table order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// VariantNames returns the known variant names in table order.
func VariantNames() []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.Name
	}
	return names
}

// VariantFor looks up a variant by name, case-insensitively.
// Empty selects the default variant.
func VariantFor(name string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultVariantName
	}
	for _, v := range variants {
		if v.Name == key {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q (available: %s)", ErrUnsupportedVariant, name, strings.Join(VariantNames(), ", "))
}

// VariantInfo is a listing entry.
type VariantInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"-"`
}

// ListVariants reports the variants whose primary file exists under
// templateDir. The default variant is always reported so the listing is
// never empty; it is flagged unavailable when its file is missing.
func ListVariants(templateDir string) []VariantInfo {
	var out []VariantInfo
	for _, v := range variants {
		if fileutil.FileExists(filepath.Join(templateDir, v.Primary)) {
			out = append(out, VariantInfo{Name: v.Name, Description: v.Description, Available: true})
		}
	}
	if len(out) == 0 {
		def := variants[0]
		out = append(out, VariantInfo{Name: def.Name, Description: def.Description, Available: false})
	}
	return out
}
