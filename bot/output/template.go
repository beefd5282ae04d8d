package output

import "context"

// TemplateButton binds a reusable button into a template at a fixed
// position. Number defines the keyboard order and is unique per template.
type TemplateButton struct {
	Number       int
	Name         string
	Text         string
	CallbackData string
}

// Template is an immutable-per-deploy definition of a renderable output.
// Text may contain {name} tokens; every token must be listed in
// Placeholders, anything else is an authoring bug surfaced at render time.
type Template struct {
	Name         string
	Text         string
	Placeholders []string
	Buttons      []TemplateButton
}

// TemplateSource resolves templates by name. Implemented by the store.
type TemplateSource interface {
	TemplateByName(ctx context.Context, name string) (*Template, error)
}

func (t *Template) allowsPlaceholder(name string) bool {
	for _, p := range t.Placeholders {
		if p == name {
			return true
		}
	}
	return false
}
