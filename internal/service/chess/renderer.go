package chess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-chess/internal/engine"
)

type MoveHighlight struct {
	From engine.Square
	To   engine.Square
}

type RenderOptions struct {
	Highlight *MoveHighlight
	Material  MaterialScore
	HUDHeader string
	HUDTurn   string
	// Flip draws the board from Black's side.
	Flip bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board engine.Board, opts RenderOptions) ([]byte, error)
}

type pngBoardRenderer struct {
	squareSize int
}

func NewPNGBoardRenderer() BoardRenderer {
	return &pngBoardRenderer{squareSize: 64}
}

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	moveHighlightFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	checkHighlightFill  = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	backgroundColor     = color.RGBA{22, 24, 36, 255}
	hudPanelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *pngBoardRenderer) RenderPNG(ctx context.Context, board engine.Board, opts RenderOptions) ([]byte, error) {
	const (
		sideMargin   = 24
		topMargin    = 64
		bottomMargin = 24
		panelRadius  = 8
	)
	sq := r.squareSize
	boardSize := sq * 8
	origin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(origin.X, origin.Y, origin.X+boardSize, origin.Y+boardSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawHUD(img, opts, boardRect, panelRadius)
	for s := engine.Square(0); s < 64; s++ {
		clr := lightSquare
		if (s.File()+s.Rank())%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(img, squareRect(s, sq, origin, opts.Flip), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
	if h := opts.Highlight; h != nil && h.From.Valid() && h.To.Valid() {
		drawSquareOverlay(img, h.From, sq, origin, opts.Flip, moveHighlightFill)
		drawSquareOverlay(img, h.To, sq, origin, opts.Flip, moveHighlightFill)
	}
	if board.InCheck() {
		drawSquareOverlay(img, board.KingSquare(board.Turn()), sq, origin, opts.Flip, checkHighlightFill)
	}
	for s := engine.Square(0); s < 64; s++ {
		p := board.Piece(s)
		if p.IsEmpty() {
			continue
		}
		pieceImg, err := renderPieceImage(p, sq)
		if err != nil {
			return nil, err
		}
		imagedraw.Draw(img, squareRect(s, sq, origin, opts.Flip), pieceImg, image.Point{}, imagedraw.Over)
	}
	drawCoordinates(img, sq, origin, sideMargin, opts.Flip)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareRect(s engine.Square, size int, origin image.Point, flip bool) image.Rectangle {
	col, row := s.File(), 7-s.Rank()
	if flip {
		col, row = 7-col, 7-row
	}
	x := origin.X + col*size
	y := origin.Y + row*size
	return image.Rect(x, y, x+size, y+size)
}

func drawSquareOverlay(img *image.RGBA, s engine.Square, size int, origin image.Point, flip bool, clr color.Color) {
	imagedraw.Draw(img, squareRect(s, size, origin, flip), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawHUD(img *image.RGBA, opts RenderOptions, boardRect image.Rectangle, radius int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Player vs Computer"
	}
	turn := strings.TrimSpace(opts.HUDTurn)
	score := formatMaterialDiff(opts.Material)

	panel := image.Rect(boardRect.Min.X, 8, boardRect.Max.X, boardRect.Min.Y-10)
	drawRoundedPanel(img, panel, radius, hudPanelColor)

	pad := 12
	scoreWidth := drawer.MeasureString(score).Round()
	title = truncateWithEllipsis(face, title, panel.Dx()-pad*3-scoreWidth)
	lineHeight := face.Metrics().Height.Ceil()

	drawer.Src = image.NewUniform(hudTextPrimary)
	drawer.Dot = fixed.P(panel.Min.X+pad, panel.Min.Y+pad+lineHeight/2+2)
	drawer.DrawString(title)

	drawer.Dot = fixed.P(panel.Max.X-pad-scoreWidth, panel.Min.Y+pad+lineHeight/2+2)
	drawer.DrawString(score)

	if turn != "" {
		drawer.Src = image.NewUniform(hudTurnTextColor)
		drawer.Dot = fixed.P(panel.Min.X+pad, panel.Min.Y+pad+lineHeight*2)
		drawer.DrawString(truncateWithEllipsis(face, turn, panel.Dx()-pad*2))
	}
}

func drawCoordinates(img *image.RGBA, size int, origin image.Point, margin int, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < 8; i++ {
		file, rank := i, 7-i
		if flip {
			file, rank = 7-i, i
		}
		center := origin.X + i*size + size/2
		drawCenteredText(drawer, string(rune('a'+file)), center, origin.Y+8*size+ascent+4)
		middle := origin.Y + i*size + size/2
		drawCenteredText(drawer, string(rune('1'+rank)), origin.X-margin/2, middle+ascent/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = min(max(radius, 0), rect.Dx()/2, rect.Dy()/2)
	fill := image.NewUniform(clr)
	inner := []image.Rectangle{
		image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius),
		image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius),
	}
	for _, r := range inner {
		if !r.Empty() {
			imagedraw.Draw(img, r, fill, image.Point{}, imagedraw.Over)
		}
	}
	if radius == 0 {
		return
	}
	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	// quarter discs only: the straight edges are already filled
	for i, c := range corners {
		for y := -radius; y <= radius; y++ {
			for x := -radius; x <= radius; x++ {
				if x*x+y*y > radius*radius {
					continue
				}
				left, top := i%2 == 0, i < 2
				if (left && x > 0) || (!left && x < 0) || (top && y > 0) || (!top && y < 0) {
					continue
				}
				blendPixel(img, c.X+x, c.Y+y, clr)
			}
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	src := color.NRGBAModel.Convert(clr).(color.NRGBA)
	dst := img.RGBAAt(x, y)
	a := uint32(src.A)
	blend := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	img.SetRGBA(x, y, color.RGBA{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: uint8(min(uint32(dst.A)+a*(255-uint32(dst.A))/255, 255)),
	})
}

func formatMaterialDiff(material MaterialScore) string {
	diff := material.Diff()
	if diff == 0 {
		return "="
	}
	return fmt.Sprintf("%+d", diff)
}
