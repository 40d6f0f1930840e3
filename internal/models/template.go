package models

// Template is a parameterized card pattern with named slots. Templates are
// immutable once loaded; the catalog owns them.
type Template struct {
	// Frontmatter fields
	ID       string   `yaml:"id"`
	Game     string   `yaml:"game"`
	Text     string   `yaml:"text"`
	Family   string   `yaml:"family"`
	Spice    int      `yaml:"spice"`
	Locality int      `yaml:"locality,omitempty"`
	MaxWords int      `yaml:"max_words,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`

	// File info
	FilePath string `yaml:"-"`
}

// EffectiveMaxWords returns the word budget for the template, falling back
// to a generous default when the catalog omits one.
func (t *Template) EffectiveMaxWords() int {
	if t.MaxWords > 0 {
		return t.MaxWords
	}
	return 100
}

// FilterValue returns the value used for filtering in lists.
func (t Template) FilterValue() string {
	return t.Text
}

// FilledCard is a template with all slots resolved, ready to show for one
// round. It is discarded at round end; only rewritten text survives in the
// generation cache.
type FilledCard struct {
	ID       string            `json:"id"` // source template id
	Game     string            `json:"game"`
	Text     string            `json:"text"`
	Family   string            `json:"family"`
	Spice    int               `json:"spice"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WithText returns a copy of the card carrying the given text.
func (c FilledCard) WithText(text string) FilledCard {
	c.Text = text
	return c
}
