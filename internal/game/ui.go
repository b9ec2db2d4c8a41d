package game

import (
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Pixel layout. The board sits left, the HUD/instruction panel right.
const (
	cellPx     = 72
	uiBorder   = 24
	panelWidth = 336
	boardPx    = gridSize * cellPx
)

// Palette.
var (
	colBackground = color.RGBA{R: 14, G: 12, B: 20, A: 255}
	colBoard      = color.RGBA{R: 26, G: 24, B: 38, A: 255}
	colGridLine   = color.RGBA{R: 52, G: 48, B: 72, A: 255}
	colAnchor     = color.RGBA{R: 80, G: 140, B: 200, A: 255}
	colFacing     = color.RGBA{R: 200, G: 220, B: 255, A: 255}
	colText       = color.RGBA{R: 215, G: 215, B: 225, A: 255}
	colDim        = color.RGBA{R: 130, G: 130, B: 150, A: 255}
	colTagDirect  = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	colTagInvert  = color.RGBA{R: 235, G: 90, B: 90, A: 255}
	colTimerOK    = color.RGBA{R: 90, G: 190, B: 120, A: 255}
	colTimerLow   = color.RGBA{R: 220, G: 120, B: 70, A: 255}
	colBannerUp   = color.RGBA{R: 120, G: 220, B: 140, A: 255}
	colBannerDown = color.RGBA{R: 230, G: 120, B: 100, A: 255}
)

// UI is the thin ebiten wrapper around the Machine. It renders the
// PuzzleView projection only — the target cell never reaches this layer.
type UI struct {
	m    *Machine
	face font.Face

	width  int
	height int
	offX   int // board origin
	offY   int

	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool
	debug         bool
}

// New builds the UI around a machine.
func New(m *Machine) *UI {
	return &UI{
		m:        m,
		face:     basicfont.Face7x13,
		width:    uiBorder + boardPx + uiBorder + panelWidth,
		height:   uiBorder + boardPx + uiBorder,
		offX:     uiBorder,
		offY:     uiBorder,
		prevKeys: make(map[ebiten.Key]bool),
	}
}

func (ui *UI) Update() error {
	ui.handleInput()
	ui.m.Tick()
	return nil
}

// handleInput processes edge-triggered keys and board clicks.
func (ui *UI) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !ui.prevKeys[k]
	}
	st := ui.m.State()

	if pressed(ebiten.KeySpace) {
		switch st.Status {
		case StatusIdle:
			ui.m.Start()
		case StatusGameOver:
			ui.m.Resume()
		}
	}
	if pressed(ebiten.KeyEscape) {
		switch st.Status {
		case StatusPlaying, StatusSuccessAnim, StatusLevelUp, StatusLevelDown:
			ui.m.Stop()
		case StatusGameOver:
			ui.m.Menu()
		case StatusAnalytics:
			ui.m.CloseAnalytics()
		}
	}
	if pressed(ebiten.KeyP) {
		ui.m.TogglePractice()
	}
	if pressed(ebiten.KeyA) {
		ui.m.ShowAnalytics()
	}
	if pressed(ebiten.KeyF1) {
		ui.debug = !ui.debug
	}
	if pressed(ebiten.KeyC) && st.Status == StatusAnalytics {
		report := FormatSessionReport(ui.m.Analytics(), st, ui.m.now())
		if err := clipboard.WriteAll(report); err != nil {
			log.Printf("clipboard copy failed: %v", err)
		}
	}
	if st.Status == StatusIdle {
		if pressed(ebiten.KeyArrowUp) {
			ui.m.SetLevel(st.Level + 1)
		}
		if pressed(ebiten.KeyArrowDown) {
			ui.m.SetLevel(st.Level - 1)
		}
		if pressed(ebiten.KeyBackspace) {
			ui.m.ResetProgress()
		}
	}

	// Board click → cell selection (edge-triggered).
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !ui.prevMouseLeft {
			mx, my := ebiten.CursorPosition()
			cx := (mx - ui.offX) / cellPx
			cy := (my - ui.offY) / cellPx
			if mx >= ui.offX && my >= ui.offY && cx >= 0 && cx < gridSize && cy >= 0 && cy < gridSize {
				ui.m.CellSelected(cx, cy)
			}
		}
	}
	ui.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	ui.prevKeys = currentKeys
}

func (ui *UI) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)
	st := ui.m.State()

	switch st.Status {
	case StatusIdle:
		ui.drawBoardFrame(screen)
		ui.drawMenu(screen, st)
	case StatusAnalytics:
		ui.drawAnalytics(screen, st)
	case StatusGameOver:
		ui.drawBoardFrame(screen)
		ui.drawGameOver(screen, st)
	default: // playing and the transient statuses
		ui.drawBoardFrame(screen)
		ui.drawBoard(screen)
		ui.drawPanel(screen, st)
		ui.drawBanner(screen, st)
	}

	if ui.debug {
		ebitenutil.DebugPrintAt(screen,
			fmt.Sprintf("TPS %.0f  FPS %.0f  tick %d  status %s",
				ebiten.ActualTPS(), ebiten.ActualFPS(), ui.m.CurrentTick(), st.Status),
			2, ui.height-16)
	}
}

// drawBoardFrame fills the board area and strokes the outer frame.
func (ui *UI) drawBoardFrame(screen *ebiten.Image) {
	ox, oy := float32(ui.offX), float32(ui.offY)
	vector.FillRect(screen, ox, oy, boardPx, boardPx, colBoard, false)
	vector.StrokeRect(screen, ox-1, oy-1, boardPx+2, boardPx+2, 2.0, colGridLine, false)
}

// drawBoard renders the grid, the rotating anchor, and nothing else: where
// the chain leads is exactly what the player must work out.
func (ui *UI) drawBoard(screen *ebiten.Image) {
	ox, oy := float32(ui.offX), float32(ui.offY)
	for i := 1; i < gridSize; i++ {
		p := float32(i * cellPx)
		vector.StrokeLine(screen, ox+p, oy, ox+p, oy+boardPx, 1.0, colGridLine, false)
		vector.StrokeLine(screen, ox, oy+p, ox+boardPx, oy+p, 1.0, colGridLine, false)
	}

	view := ui.m.PuzzleView()
	ax := ox + float32(view.Anchor.X*cellPx)
	ay := oy + float32(view.Anchor.Y*cellPx)
	vector.FillRect(screen, ax+3, ay+3, cellPx-6, cellPx-6, colAnchor, false)

	// Facing arrow: a line from the anchor centre toward "front".
	cx := ax + cellPx/2
	cy := ay + cellPx/2
	dx, dy := Resolve(view.Rotation, DirFront)
	fx := cx + float32(dx*cellPx)*0.34
	fy := cy + float32(dy*cellPx)*0.34
	vector.StrokeLine(screen, cx, cy, fx, fy, 3.0, colFacing, false)
	// Arrowhead: two short strokes back from the tip, perpendicular-ish.
	px, py := float32(-dy), float32(dx)
	vector.StrokeLine(screen, fx, fy, fx-float32(dx)*8+px*6, fy-float32(dy)*8+py*6, 3.0, colFacing, false)
	vector.StrokeLine(screen, fx, fy, fx-float32(dx)*8-px*6, fy-float32(dy)*8-py*6, 3.0, colFacing, false)
}

// drawPanel renders the instruction chain, progression HUD, and timer bar.
func (ui *UI) drawPanel(screen *ebiten.Image, st GameState) {
	px := ui.offX + boardPx + uiBorder
	py := ui.offY

	text.Draw(screen, "DEICTIC VOID", ui.face, px, py+12, colText)
	line := py + 40

	view := ui.m.PuzzleView()
	for i, in := range view.Chain {
		col := colTagDirect
		if in.Display == TagInverted {
			col = colTagInvert
		}
		frame := "rel"
		if in.Frame == FrameAbsolute {
			frame = "abs"
		}
		// The word is the truth, the colour is the decoy.
		s := fmt.Sprintf("%d. %-5s  %s · %s", i+1, strings.ToUpper(in.Dir.String()), frame, in.Protocol)
		text.Draw(screen, s, ui.face, px, line, col)
		line += 18
	}
	line += 18

	practice := ""
	if st.Practice {
		practice = "  [PRACTICE]"
	}
	hud := []string{
		fmt.Sprintf("level      %d (max %d)%s", st.Level, st.MaxLevel, practice),
		fmt.Sprintf("score      %d", st.Score),
		fmt.Sprintf("stability  %.0f / 100", st.Stability),
		fmt.Sprintf("multiplier x%.1f", st.Multiplier),
		fmt.Sprintf("streak     %d", st.Streak),
	}
	for _, h := range hud {
		text.Draw(screen, h, ui.face, px, line, colText)
		line += 16
	}
	line += 10

	// Stability bar.
	vector.StrokeRect(screen, float32(px), float32(line), 200, 10, 1.0, colGridLine, false)
	vector.FillRect(screen, float32(px)+1, float32(line)+1, float32(198*st.Stability/stabilityMax), 8, colAnchor, false)
	line += 26

	// Countdown bar. Practice freezes the timer, shown dimmed.
	pct := ui.m.TimerPercent()
	barCol := colTimerOK
	if pct < 30 {
		barCol = colTimerLow
	}
	if st.Practice {
		barCol = colDim
	}
	vector.StrokeRect(screen, float32(px), float32(line), 200, 14, 1.0, colGridLine, false)
	vector.FillRect(screen, float32(px)+1, float32(line)+1, float32(198*pct/timerFull), 12, barCol, false)
	line += 34

	for _, h := range []string{"ESC stop", "P  practice"} {
		text.Draw(screen, h, ui.face, px, line, colDim)
		line += 16
	}
}

// drawBanner overlays the transient status banners.
func (ui *UI) drawBanner(screen *ebiten.Image, st GameState) {
	var msg string
	var col color.Color
	switch st.Status {
	case StatusLevelUp:
		msg = fmt.Sprintf("LEVEL UP — %d", st.Level)
		col = colBannerUp
	case StatusLevelDown:
		msg = fmt.Sprintf("LEVEL DOWN — %d", st.Level)
		col = colBannerDown
	case StatusSuccessAnim:
		if e, ok := ui.m.Events().LastOf("round", "loss"); ok {
			if w, wok := ui.m.Events().LastOf("round", "win"); !wok || e.Tick > w.Tick {
				msg, col = "MISS", colBannerDown
				break
			}
		}
		msg, col = "HIT", colBannerUp
	default:
		return
	}
	cx := ui.offX + boardPx/2 - len(msg)*7/2
	cy := ui.offY + boardPx/2
	text.Draw(screen, msg, ui.face, cx, cy, col)
}

func (ui *UI) drawMenu(screen *ebiten.Image, st GameState) {
	px := ui.offX + boardPx + uiBorder
	line := ui.offY + 12
	text.Draw(screen, "DEICTIC VOID", ui.face, px, line, colText)
	line += 40
	rows := []string{
		fmt.Sprintf("level %d (max %d)", st.Level, st.MaxLevel),
		fmt.Sprintf("score %d", st.Score),
		"",
		"SPACE     start",
		"UP/DOWN   set level",
		"P         practice mode",
		"A         analytics",
		"BACKSPACE reset progress",
	}
	if st.Practice {
		rows[2] = "[PRACTICE]"
	}
	for _, r := range rows {
		text.Draw(screen, r, ui.face, px, line, colText)
		line += 18
	}
}

func (ui *UI) drawGameOver(screen *ebiten.Image, st GameState) {
	cx := ui.offX + boardPx/2 - 40
	cy := ui.offY + boardPx/2 - 20
	text.Draw(screen, "ROUND OVER", ui.face, cx, cy, colText)
	text.Draw(screen, fmt.Sprintf("score %d · level %d", st.Score, st.Level), ui.face, cx-14, cy+20, colDim)

	px := ui.offX + boardPx + uiBorder
	line := ui.offY + 12
	for _, r := range []string{"SPACE resume", "ESC   menu", "A     analytics"} {
		text.Draw(screen, r, ui.face, px, line, colDim)
		line += 18
	}
}

func (ui *UI) drawAnalytics(screen *ebiten.Image, st GameState) {
	report := FormatSessionReport(ui.m.Analytics(), st, ui.m.now())
	line := ui.offY + 12
	for _, row := range strings.Split(report, "\n") {
		text.Draw(screen, row, ui.face, ui.offX, line, colText)
		line += 16
	}
	text.Draw(screen, "C copy to clipboard · ESC back", ui.face, ui.offX, ui.height-uiBorder, colDim)
}

func (ui *UI) Layout(_, _ int) (int, int) {
	return ui.width, ui.height
}
