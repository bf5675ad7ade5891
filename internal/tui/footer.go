package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// FooterModel renders the key hints and the last command error.
type FooterModel struct {
	bindings []key.Binding
	err      string
}

// NewFooterModel creates a footer listing bindings.
func NewFooterModel(bindings []key.Binding) FooterModel {
	return FooterModel{bindings: bindings}
}

// SetError shows err in the footer; nil clears it.
func (f *FooterModel) SetError(err error) {
	if err == nil {
		f.err = ""
		return
	}
	f.err = err.Error()
}

// View renders the footer.
func (f FooterModel) View() string {
	hints := make([]string, 0, len(f.bindings))
	for _, b := range f.bindings {
		h := b.Help()
		hints = append(hints, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	line := " " + strings.Join(hints, "  ")
	if f.err != "" {
		line += "  " + statusErrorStyle.Render("Error: "+f.err)
	}
	return line
}
