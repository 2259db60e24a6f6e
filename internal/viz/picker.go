package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/legkin/internal/experiment"
)

// Choice is one entry of the preset picker.
type Choice struct {
	Name        string
	Description string
}

// BuildFunc builds the experiment for a picked preset.
type BuildFunc func(name string) (*experiment.Experiment, error)

// Picker lists presets and opens the live view on the chosen one.
type Picker struct {
	choices []Choice
	cursor  int
	build   BuildFunc
	styles  Styles
	err     error

	live   Model
	inLive bool
}

func NewPicker(choices []Choice, build BuildFunc) Picker {
	return Picker{choices: choices, build: build, styles: NewStyles(Themes[0])}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.inLive {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.choices)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.choices) == 0 {
			return p, nil
		}
		name := p.choices[p.cursor].Name
		exp, err := p.build(name)
		if err != nil {
			p.err = err
			return p, nil
		}
		p.err = nil
		p.live = NewModel(exp, name)
		p.inLive = true
		return p, p.live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.inLive {
		return p.live.View()
	}
	st := p.styles
	var b strings.Builder
	b.WriteString("\n  " + st.Header.Render("LEGKIN") + "\n  " + st.Muted.Render("pick a preset") + "\n\n")
	for i, c := range p.choices {
		line := fmt.Sprintf("%-10s %s", c.Name, c.Description)
		if i == p.cursor {
			b.WriteString("  " + st.Selected.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + st.Muted.Render(line) + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n  " + st.Bad.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n  " + st.Muted.Render("j/k move  enter start  q quit") + "\n")
	return b.String()
}

// RunPicker shows the preset picker until the user quits.
func RunPicker(choices []Choice, build BuildFunc) error {
	_, err := tea.NewProgram(NewPicker(choices, build), tea.WithAltScreen()).Run()
	return err
}
