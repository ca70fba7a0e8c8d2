package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// helpMarkdown builds the help overlay document from the active bindings.
func helpMarkdown(k keyMap) string {
	var b strings.Builder
	b.WriteString("# chantab\n\n")
	b.WriteString("Channels resolve from local storage first, then the remote snapshot, then the markup file.\n\n")
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{title: "Table", bindings: []key.Binding{k.moveUp, k.moveDown, k.menu, k.add, k.delete}},
		{title: "Overlays", bindings: []key.Binding{k.confirm, k.deny, k.cancel}},
		{title: "General", bindings: []key.Binding{k.toggleHelp, k.quit}},
	}
	for _, section := range sections {
		b.WriteString("## " + section.title + "\n\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString("- `" + h.Key + "` " + h.Desc + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Click `•••` on a row to toggle its menu, or `[+ add]` to add a channel.\n")
	return b.String()
}
