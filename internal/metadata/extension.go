package metadata

// Extension is application data attached to a schema, table or column.
// The graph never reads it; Kind lets consumers switch on the variant.
type Extension interface {
	Kind() string
}

// Properties is a free-form string map extension.
type Properties map[string]string

// Kind implements Extension.
func (Properties) Kind() string { return "properties" }

// Raw is an opaque byte payload tagged with a media type.
type Raw struct {
	MediaType string
	Data      []byte
}

// Kind implements Extension.
func (r *Raw) Kind() string { return "raw:" + r.MediaType }
