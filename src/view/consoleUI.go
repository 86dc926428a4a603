package view

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"

	"bitlife/src/driver"
)

//rate bounds for the + and - keys, generations per second
const (
	MinRate = 0.5
	MaxRate = 200
	DefRate = 10
)

type keyBindings struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI is the interactive terminal renderer and input controller
type ConsoleUI struct {
	d      *driver.Driver
	g      *gocui.Gui
	k      []keyBindings
	mapper CellMapper
	log    *slog.Logger

	//randomDensity is the live probability used by the random key
	randomDensity float64

	frameMu sync.Mutex
	frame   driver.Frame

	liveFiller string
	deadFiller string
}

var (
	runningStateDescr = map[driver.RunningState]string{
		driver.RunningStateManual:   aurora.Colorize("paused", aurora.BlueFg).String(),
		driver.RunningStateStep:     "do the step",
		driver.RunningStateRun:      aurora.Colorize("running", aurora.CyanFg).String(),
		driver.RunningStateFinished: aurora.Colorize("finished", aurora.RedFg).String(),
	}
)

//NewViewTerminal initialises the terminal; the caller must run Start to give it back
func NewViewTerminal(randomDensity float64, logger *slog.Logger) (*ConsoleUI, error) {
	var err error
	if logger == nil {
		logger = slog.Default()
	}
	t := ConsoleUI{
		//every cell is two characters wide to look square
		liveFiller:    aurora.Green("██").BgBrightGreen().String(),
		deadFiller:    "░░",
		mapper:        CellMapper{CellWidth: 2, CellHeight: 1},
		randomDensity: randomDensity,
		log:           logger,
	}

	t.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, fmt.Errorf("initialising terminal: %w", err)
	}

	t.g.Mouse = true
	t.k = []keyBindings{
		{gocui.KeyCtrlC, "^C", "Exit", t.cmdQuit, ""},
		{gocui.KeySpace, "SPACE", "Play/Pause", t.cmdToggle, ""},
		{'n', "N", "Next step", t.cmdNextRound, ""},
		{'r', "R", "Run", t.cmdRun, ""},
		{'s', "S", "Stop", t.cmdStop, ""},
		{'c', "C", "Clear", t.cmdClear, ""},
		{'w', "W", "Settle with random", t.cmdSettleWithRandom, ""},
		{'+', "+", "Faster", t.cmdFaster, ""},
		{'-', "-", "Slower", t.cmdSlower, ""},
		{gocui.MouseLeft, "MOUSE", "Toggle the cell", t.cmdMouseClick, "battlefield"},
	}
	t.g.SetManagerFunc(t.layout)

	if err := t.initKeyBindings(t.k); err != nil {
		t.g.Close()
		return nil, err
	}

	return &t, nil
}

func (t *ConsoleUI) initKeyBindings(k []keyBindings) error {
	for _, kb := range k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(gui *gocui.Gui, view *gocui.View) error { return h(view) }); err != nil {
			return fmt.Errorf("binding %s: %w", kb.name, err)
		}
	}
	return nil
}

func (t *ConsoleUI) Register(d *driver.Driver) {
	t.d = d
	if f, err := d.Frame(); err == nil {
		t.setFrame(f)
	}
}

//Start runs the terminal main loop until the user quits
func (t *ConsoleUI) Start() {
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		t.log.Error("terminal main loop", slog.Any("error", err))
	}
	t.g.Close()
}

//Refresh is called by the driver on its control goroutine, it must not call back into the driver
func (t *ConsoleUI) Refresh(f driver.Frame) {
	t.setFrame(f)
	t.g.Update(func(g *gocui.Gui) error {
		t.renderField(g)
		t.renderConfiguration(g)
		t.renderStatus(g)
		return nil
	})
}

func (t *ConsoleUI) setFrame(f driver.Frame) {
	t.frameMu.Lock()
	t.frame = f
	t.frameMu.Unlock()
}

func (t *ConsoleUI) lastFrame() driver.Frame {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()
	return t.frame
}

//renderField draws the grid, must run inside the gui goroutine
func (t *ConsoleUI) renderField(g *gocui.Gui) {
	v, err := g.View("battlefield")
	if err != nil {
		return
	}
	//the entire field is redrawing at once now
	v.Clear()
	maxW, maxH := v.Size()
	rows, crop := RenderRows(t.lastFrame(), t.liveFiller, t.deadFiller, maxW/t.mapper.CellWidth, maxH)

	var b bytes.Buffer
	for i, l := range rows {
		if i != 0 {
			b.WriteByte('\n')
		}
		if crop && i == maxH-1 {
			b.WriteString(aurora.Red("The field size is larger than the viewing area").BgBlack().String())
			break
		}
		b.WriteString(l)
	}
	_, _ = fmt.Fprint(v, b.String())
}

func (t *ConsoleUI) renderStatus(g *gocui.Gui) {
	s := t.lastFrame().Status
	v, err := g.View("status")
	if err != nil {
		return
	}
	v.Clear()
	_, _ = fmt.Fprintln(v, t.renderProp("Generation", "%v", s.Generation))
	_, _ = fmt.Fprintln(v, t.renderProp("Live Cells", "%v", s.LiveCells))
	_, _ = fmt.Fprintln(v, t.renderProp("Evaluation time", "%v", s.IterationTime.Round(time.Microsecond)))
	_, _ = fmt.Fprintln(v, t.renderProp("Mode", "%v", runningStateDescr[s.RunningMode]))
}

func (t *ConsoleUI) renderConfiguration(g *gocui.Gui) {
	v, err := g.View("configuration")
	if err != nil || t.d == nil {
		return
	}
	o := t.d.Options()
	uo := t.d.UniverseOptions()
	v.Clear()
	_, _ = fmt.Fprintln(v, t.renderProp("Dimension", "%v x %v", uo.Width, uo.Height))
	_, _ = fmt.Fprintln(v, t.renderProp("Engine", "%v", uo.Engine))
	_, _ = fmt.Fprintln(v, t.renderProp("Edge", "%v", uo.Edge))
	_, _ = fmt.Fprintln(v, t.renderProp("Rate", "%.1f/s", t.d.Rate()))
	_, _ = fmt.Fprintln(v, t.renderProp("Iterations", "%v steps", o.MaxSteps))
}

func (t *ConsoleUI) renderProp(name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {

	maxX, maxY := g.Size()
	leftColumnWidth := 28
	minWindowHeight := 20

	if maxY < minWindowHeight {
		if _, err := t.headerLayout(g, maxY, "Terminal height too small"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
		_ = g.DeleteView("configuration")
		_ = g.DeleteView("status")
		_ = g.DeleteView("battlefield")
		return nil
	}
	if _, err := t.headerLayout(g, 3, "This is \"The Life\" game simulation"); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
	}

	if v, err := g.SetView("configuration", 0, 3, leftColumnWidth, 3+(maxY-5-3)/2); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Configuration"
		v.Frame = true
		t.renderConfiguration(g)
	}

	if v, err := g.SetView("status", 0, 3+(maxY-5-3)/2+1, leftColumnWidth, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Status"
		v.Frame = true
		t.renderStatus(g)
	}

	if v, err := g.SetView("battlefield", leftColumnWidth+1, 3, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Battle Field"
		v.Frame = true
	}
	t.renderField(g)

	if v, err := g.SetView("help", -1, maxY-5, maxX, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Frame = false
		v.Wrap = true
		b := bytes.Buffer{}
		b.WriteString("KEYBINDINGS: ")
		for i, k := range t.k {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(aurora.Green(k.name).String())
			b.WriteString(": ")
			b.WriteString(k.descr)
		}
		_, _ = fmt.Fprintln(v, b.String())
	}

	return nil
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) (v *gocui.View, err error) {
	maxX, _ := g.Size()
	if v, err = g.SetView("header", -1, -1, maxX+1, height); err != nil {
		if err == gocui.ErrUnknownView && v != nil {
			v.Frame = false
			v.BgColor = gocui.ColorCyan
			v.FgColor = gocui.ColorBlack
		}
	}
	if v != nil {
		v.Clear()
		pad := 0
		if maxX > len(text) {
			pad = (maxX - len(text)) / 2
		}
		_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2+1)+strings.Repeat(" ", pad)+text)
	}
	return
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdToggle(_ *gocui.View) error {
	t.d.Toggle()
	return nil
}

func (t *ConsoleUI) cmdNextRound(_ *gocui.View) error {
	t.d.Step()
	return nil
}

func (t *ConsoleUI) cmdRun(_ *gocui.View) error {
	t.d.Run()
	return nil
}

func (t *ConsoleUI) cmdStop(_ *gocui.View) error {
	t.d.Stop()
	return nil
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.d.Clear()
	return nil
}

func (t *ConsoleUI) cmdSettleWithRandom(_ *gocui.View) error {
	if err := t.d.Randomize(t.randomDensity); err != nil {
		t.log.Warn("random fill rejected", slog.Any("error", err))
	}
	return nil
}

func (t *ConsoleUI) cmdFaster(_ *gocui.View) error {
	return t.changeRate(2)
}

func (t *ConsoleUI) cmdSlower(_ *gocui.View) error {
	return t.changeRate(0.5)
}

func (t *ConsoleUI) changeRate(factor float64) error {
	rate := t.d.Rate()
	if rate == 0 {
		rate = DefRate
	}
	rate *= factor
	if rate < MinRate {
		rate = MinRate
	} else if rate > MaxRate {
		rate = MaxRate
	}
	if err := t.d.SetRate(rate); err != nil {
		t.log.Warn("rate rejected", slog.Any("error", err))
	}
	t.g.Update(func(g *gocui.Gui) error {
		t.renderConfiguration(g)
		return nil
	})
	return nil
}

//cmdMouseClick toggles the cell under the mouse, clicks past the grid hit the nearest edge cell
func (t *ConsoleUI) cmdMouseClick(v *gocui.View) error {
	cx, cy := v.Cursor()
	ox, oy := v.Origin()
	f := t.lastFrame()
	row, col := t.mapper.CellAt(cx+ox, cy+oy, f.Width, f.Height)
	if err := t.d.ToggleCell(row, col); err != nil {
		t.log.Debug("click ignored", slog.Int("row", row), slog.Int("col", col), slog.Any("error", err))
	}
	return nil
}
