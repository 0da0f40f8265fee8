package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/sim"
)

// Builder constructs a simulator for a scene configuration.
type Builder func(cfg *config.Config) (*sim.Simulator, error)

var sceneInfo = map[string]string{
	"jelly":  "soft tilted cube",
	"rigid":  "stiff cube, no deformation",
	"floppy": "loose sphere, high flappyness",
	"drop":   "random cloud thrown sideways",
}

var (
	menuTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	menuDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// Launcher lists presets and opens the chosen one in a live Model.
type Launcher struct {
	build   Builder
	presets []string
	cursor  int
	live    *Model
	err     error
}

func NewLauncher(build Builder) Launcher {
	return Launcher{build: build, presets: config.ListPresets()}
}

func (l Launcher) Init() tea.Cmd { return nil }

func (l Launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if l.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			l.live = nil
			return l, nil
		}
		next, cmd := l.live.Update(msg)
		m := next.(Model)
		l.live = &m
		return l, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return l, tea.Quit
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
	case "down", "j":
		if l.cursor < len(l.presets)-1 {
			l.cursor++
		}
	case "enter", " ":
		return l.start()
	}
	return l, nil
}

func (l Launcher) start() (tea.Model, tea.Cmd) {
	cfg := config.GetPreset(l.presets[l.cursor])
	s, err := l.build(cfg)
	if err != nil {
		l.err = err
		return l, nil
	}
	m := NewModel(s, cfg.Scene, cfg.Params(), float32(cfg.Dt), cfg.Substeps)
	l.live, l.err = &m, nil
	return l, m.Init()
}

func (l Launcher) View() string {
	if l.live != nil {
		return l.live.View() + "\n" + menuDim.Render("esc: back to scenes")
	}

	var s strings.Builder
	s.WriteString(menuTitle.Render("SOFTBODY") + "\n\n")
	for i, name := range l.presets {
		line := fmt.Sprintf("%-8s %s", name, menuDim.Render(sceneInfo[name]))
		if i == l.cursor {
			s.WriteString(menuActive.Render("> "+name) + strings.TrimPrefix(line, name) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}
	if l.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(l.err.Error()) + "\n")
	}
	s.WriteString("\n" + menuDim.Render("↑/↓ select  enter start  q quit"))
	return s.String()
}
