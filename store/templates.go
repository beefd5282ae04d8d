package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/telestar/shopbot/bot/output"
)

// TemplateByName loads a template with its ordered buttons, or nil when
// no template has that name.
func (t *Tx) TemplateByName(ctx context.Context, name string) (*output.Template, error) {
	return templateByName(ctx, t.tx, name)
}

// TemplateByName on the store reads outside any transaction. Templates
// are immutable per deploy, so the renderer's cache sits on top of this.
func (s *Store) TemplateByName(ctx context.Context, name string) (*output.Template, error) {
	return templateByName(ctx, s.db, name)
}

func templateByName(ctx context.Context, q querier, name string) (*output.Template, error) {
	var row templateRow
	err := q.GetContext(ctx, &row, `
		SELECT id, name, text, placeholders
		FROM templates WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}

	var buttonRows []templateButtonRow
	err = q.SelectContext(ctx, &buttonRows, `
		SELECT tb.number, b.name, b.text, b.callback_data
		FROM template_buttons tb
		JOIN buttons b ON b.id = tb.button_id
		WHERE tb.template_id = $1
		ORDER BY tb.number`, row.ID)
	if err != nil {
		return nil, fmt.Errorf("buttons for template %q: %w", name, err)
	}

	tpl := &output.Template{
		Name:         row.Name,
		Text:         row.Text,
		Placeholders: row.Placeholders,
	}
	for _, br := range buttonRows {
		tpl.Buttons = append(tpl.Buttons, output.TemplateButton{
			Number:       br.Number,
			Name:         br.Name,
			Text:         br.Text,
			CallbackData: br.CallbackData,
		})
	}
	return tpl, nil
}
