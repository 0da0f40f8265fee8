package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	paramStep       = 0.05
	rotateStep      = 0.1
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulator once per tick and draws the body.
type Model struct {
	sim           *sim.Simulator
	scene         string
	params        dynamo.Params
	initialParams dynamo.Params
	dt            float32
	substeps      int

	width, height int
	canvas        *Canvas
	camera        *Camera
	theme         Theme
	styles        Styles

	running       bool
	showGoals     bool
	showHelp      bool
	err           error
	heightHistory []float64
	energyHistory []float64

	recording bool
	frames    []*image.Paletted
}

func NewModel(s *sim.Simulator, scene string, params dynamo.Params, dt float32, substeps int) Model {
	cam := NewCamera()
	cam.Fit(s.Store().Positions())
	cam.Target[1] = max(cam.Target[1]/2, 0.5)

	return Model{
		sim:           s,
		scene:         scene,
		params:        params,
		initialParams: params,
		dt:            dt,
		substeps:      max(substeps, 1),
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		camera:        cam,
		theme:         Themes[0],
		styles:        NewStyles(Themes[0]),
		running:       true,
		heightHistory: make([]float64, 0, historyCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Params returns the parameters currently applied each frame.
func (m Model) Params() dynamo.Params { return m.params }

func (m Model) Running() bool { return m.running }

// Err is the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "+", "=":
			m.params.Stiffness = adjust(m.params.Stiffness, paramStep)
		case "-", "_":
			m.params.Stiffness = adjust(m.params.Stiffness, -paramStep)
		case "]":
			m.params.Deformation = adjust(m.params.Deformation, paramStep)
		case "[":
			m.params.Deformation = adjust(m.params.Deformation, -paramStep)
		case "left", "h":
			m.camera.RotateYaw(-rotateStep)
		case "right", "l":
			m.camera.RotateYaw(rotateStep)
		case "up", "k":
			m.camera.RotatePitch(rotateStep)
		case "down", "j":
			m.camera.RotatePitch(-rotateStep)
		case "z":
			m.camera.ZoomIn()
		case "Z":
			m.camera.ZoomOut()
		case "o":
			m.showGoals = !m.showGoals
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func adjust(v, delta float32) float32 {
	return max(0, min(1, v+delta))
}

func (m *Model) resize(w, h int) {
	cw := max(20, w-50)
	ch := max(8, h-4)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

func (m *Model) step() {
	if err := m.sim.Frame(m.params, m.dt, m.substeps); err != nil {
		m.err = err
		m.running = false
		return
	}

	store := m.sim.Store()
	m.heightHistory = appendCapped(m.heightHistory, float64(store.CenterOfMass()[1]))
	m.energyHistory = appendCapped(m.energyHistory, metrics.TotalEnergy(store, m.params))

	c := store.CenterOfMass()
	m.camera.Target[0], m.camera.Target[2] = c[0], c[2]
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) reset() {
	m.sim.Reset()
	m.params = m.initialParams
	m.err = nil
	m.running = true
	m.heightHistory = m.heightHistory[:0]
	m.energyHistory = m.energyHistory[:0]
}

func (m *Model) draw() {
	m.canvas.Clear()
	store := m.sim.Store()
	goals := store.Goals()
	if !m.showGoals {
		goals = nil
	}
	Render3D(m.canvas, BodyWireframe(store.Positions(), goals), m.camera)
}

func (m Model) View() string {
	st := m.styles
	canvasView := st.Canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.scene)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.Failed.Render("FAILED") + "\n")
		s.WriteString(st.Value.Render(m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.Running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.Paused.Render("PAUSED") + "\n\n")
	}
	if m.recording {
		s.WriteString(st.Recording.Render(fmt.Sprintf("REC %d", len(m.frames))) + "\n\n")
	}

	if len(m.heightHistory) > 1 {
		chart := asciigraph.Plot(m.heightHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("centroid height"))
		s.WriteString(st.Graph.Render(chart) + "\n\n")
	}

	store := m.sim.Store()
	c := store.CenterOfMass()
	s.WriteString(st.Label.Render("Time") + st.Value.Render(fmt.Sprintf("%.2fs", m.sim.Time())) + "\n")
	s.WriteString(st.Label.Render("Frame") + st.Value.Render(fmt.Sprintf("%d", m.sim.FrameCount())) + "\n")
	s.WriteString(st.Label.Render("Particles") + st.Value.Render(fmt.Sprintf("%d", store.Len())) + "\n")
	s.WriteString(st.Label.Render("Center") + st.Value.Render(fmt.Sprintf("%.2f %.2f %.2f", c[0], c[1], c[2])) + "\n")
	if n := len(m.energyHistory); n > 0 {
		s.WriteString(st.Label.Render("Energy") + st.Value.Render(fmt.Sprintf("%.2f", m.energyHistory[n-1])) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	s.WriteString(st.Active.Render(fmt.Sprintf("%-12s%s %.2f", "stiffness", ProgressBar(float64(m.params.Stiffness), 10), m.params.Stiffness)) + "\n")
	s.WriteString(st.Active.Render(fmt.Sprintf("%-12s%s %.2f", "deformation", ProgressBar(float64(m.params.Deformation), 10), m.params.Deformation)) + "\n")
	s.WriteString(st.Label.Render(fmt.Sprintf("theme %s", m.theme.Name)) + "\n")

	s.WriteString(st.Help.Render("SP:Pause R:Reset Q:Quit\n+/-:Stiffness [/]:Deformation\nArrows:Rotate Z:Zoom O:Goals\nT:Theme G:Record ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space     pause or resume
  R         reset body and parameters
  + / -     stiffness up or down
  ] / [     deformation up or down
  Arrows    rotate camera
  Z / z     zoom out or in
  O         show goal positions
  T         cycle themes
  G         toggle GIF recording
  Q         quit`

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	img := image.NewPaletted(image.Rect(0, 0, m.width*charW, m.height*charH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for row := 0; row < m.canvas.Height; row++ {
		for col := 0; col < m.canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !m.canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					baseX, baseY := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+px, baseY+py, 1)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(m.scene + ".gif")
	if err != nil {
		m.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.err = err
	}
}
