package output

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/telestar/shopbot/core/logger"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Mode selects how a rendered envelope reaches the chat.
type Mode int

const (
	// ModeAppend sends the rendered output as a new message.
	ModeAppend Mode = iota
	// ModeEdit rewrites an existing message with the rendered output.
	ModeEdit
)

// Options tune a single Render call.
type Options struct {
	Mode      Mode
	MessageID int // required for ModeEdit

	// DynamicRows are keyboard rows placed above the template's own
	// buttons, already laid out by the caller.
	DynamicRows Keyboard

	// URLOverrides turns the named template buttons into link buttons.
	// Keyed by button name, value is the target URL.
	URLOverrides map[string]string

	// RowSize overrides the renderer default for this call when > 0.
	RowSize int
}

// Renderer materializes named templates into envelopes. Template
// definitions are cached read-through; Invalidate drops a cached entry
// after the backing store changes.
type Renderer struct {
	source  TemplateSource
	rowSize int

	mu    sync.RWMutex
	cache map[string]*Template
}

// NewRenderer wires a renderer to its template source. rowSize is the
// default number of buttons per keyboard row, minimum 1.
func NewRenderer(source TemplateSource, rowSize int) *Renderer {
	if rowSize < 1 {
		rowSize = 1
	}
	return &Renderer{
		source:  source,
		rowSize: rowSize,
		cache:   make(map[string]*Template),
	}
}

// Render resolves the named template, substitutes placeholders and
// builds the keyboard. It never emits partially substituted text: any
// contract violation fails the whole render.
func (r *Renderer) Render(ctx context.Context, name string, chatID int64, placeholders map[string]string, opts Options) (Envelope, error) {
	if opts.Mode == ModeEdit && opts.MessageID == 0 {
		return nil, fmt.Errorf("render %q: %w", name, ErrEditWithoutMessage)
	}

	tpl, err := r.template(ctx, name)
	if err != nil {
		return nil, err
	}

	text, err := r.substitute(tpl, dedent(tpl.Text), placeholders)
	if err != nil {
		return nil, err
	}

	keyboard, err := r.keyboard(tpl, placeholders, opts)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "BOT", "render.template",
		slog.String("template", name),
		slog.Int("buttons", len(tpl.Buttons)),
	)

	if opts.Mode == ModeEdit {
		return Edit{ChatID: chatID, MessageID: opts.MessageID, Text: text, Keyboard: keyboard}, nil
	}
	return Append{ChatID: chatID, Text: text, Keyboard: keyboard}, nil
}

// Invalidate drops the cached definition for name, forcing the next
// Render to reload it from the source.
func (r *Renderer) Invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

// Reset drops every cached definition.
func (r *Renderer) Reset() {
	r.mu.Lock()
	r.cache = make(map[string]*Template)
	r.mu.Unlock()
}

func (r *Renderer) template(ctx context.Context, name string) (*Template, error) {
	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := r.source.TemplateByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("template %q: %w", name, ErrTemplateNotFound)
	}

	r.mu.Lock()
	r.cache[name] = tpl
	r.mu.Unlock()
	return tpl, nil
}

// substitute replaces every {token} in s, validating each token against
// the template's allow-list and the supplied values.
func (r *Renderer) substitute(tpl *Template, s string, values map[string]string) (string, error) {
	var badToken string
	var badErr error
	out := placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		if badErr != nil {
			return match
		}
		token := match[1 : len(match)-1]
		if !tpl.allowsPlaceholder(token) {
			badToken, badErr = token, ErrIllegalPlaceholder
			return match
		}
		v, ok := values[token]
		if !ok {
			badToken, badErr = token, ErrMissingPlaceholder
			return match
		}
		return v
	})
	if badErr != nil {
		return "", fmt.Errorf("template %q placeholder %q: %w", tpl.Name, badToken, badErr)
	}
	return out, nil
}

func (r *Renderer) keyboard(tpl *Template, values map[string]string, opts Options) (Keyboard, error) {
	rowSize := r.rowSize
	if opts.RowSize > 0 {
		rowSize = opts.RowSize
	}

	buttons := make([]TemplateButton, len(tpl.Buttons))
	copy(buttons, tpl.Buttons)
	sortButtons(buttons)

	flat := make([]Button, 0, len(buttons))
	for _, tb := range buttons {
		text, err := r.substitute(tpl, tb.Text, values)
		if err != nil {
			return nil, err
		}
		if url, ok := opts.URLOverrides[tb.Name]; ok {
			flat = append(flat, Button{Text: text, URL: url})
			continue
		}
		data, err := r.substitute(tpl, tb.CallbackData, values)
		if err != nil {
			return nil, err
		}
		flat = append(flat, Button{Text: text, CallbackData: data})
	}

	keyboard := make(Keyboard, 0, len(opts.DynamicRows)+(len(flat)+rowSize-1)/rowSize)
	keyboard = append(keyboard, opts.DynamicRows...)
	for i := 0; i < len(flat); i += rowSize {
		end := i + rowSize
		if end > len(flat) {
			end = len(flat)
		}
		keyboard = append(keyboard, flat[i:end])
	}
	if len(keyboard) == 0 {
		return nil, nil
	}
	return keyboard, nil
}

func sortButtons(buttons []TemplateButton) {
	for i := 1; i < len(buttons); i++ {
		for j := i; j > 0 && buttons[j].Number < buttons[j-1].Number; j-- {
			buttons[j], buttons[j-1] = buttons[j-1], buttons[j]
		}
	}
}

// dedent strips the common leading whitespace shared by all non-blank
// lines and trims surrounding blank lines. Template texts are authored
// indented inside seed files; chats should not see that indentation.
func dedent(s string) string {
	lines := strings.Split(s, "\n")

	margin := ""
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		if !found {
			margin, found = indent, true
			continue
		}
		margin = commonPrefix(margin, indent)
	}

	if found && margin != "" {
		for i, line := range lines {
			if strings.TrimLeft(line, " \t") == "" {
				lines[i] = ""
				continue
			}
			lines[i] = strings.TrimPrefix(line, margin)
		}
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
