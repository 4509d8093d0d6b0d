package chess

import (
	"strings"

	"github.com/park285/cheese-chess/internal/engine"
)

// Piece outlines on a 45x45 canvas. {F} and {S} are replaced with the fill
// and stroke colours of the side.
var pieceShapes = map[engine.PieceType]string{
	engine.Pawn: `<circle cx="22.5" cy="14" r="5.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M16 35 L29 35 L26.5 21 L18.5 21 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<rect x="12" y="35" width="21" height="4" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	engine.Knight: `<path d="M14 38 L32 38 L30.5 24 C30.5 14 25 8.5 18.5 9 L11.5 17 L13.5 21 L19 18.5 L15 29 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="17.5" cy="14" r="1.2" fill="{S}"/>`,
	engine.Bishop: `<ellipse cx="22.5" cy="21" rx="6.5" ry="9" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="22.5" cy="9.5" r="2.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M15 35 L30 35 L28 29 L17 29 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<rect x="12" y="35" width="21" height="4" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	engine.Rook: `<path d="M12 10 L16 10 L16 14 L19.5 14 L19.5 10 L25.5 10 L25.5 14 L29 14 L29 10 L33 10 L33 18 L12 18 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M14.5 18 L30.5 18 L30.5 34 L14.5 34 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<rect x="11" y="34" width="23" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	engine.Queen: `<path d="M9 13 L14.5 30 L30.5 30 L36 13 L28 22 L22.5 9 L17 22 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="9" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.2"/>` +
		`<circle cx="22.5" cy="8" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.2"/>` +
		`<circle cx="36" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.2"/>` +
		`<rect x="13" y="30" width="19" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<rect x="11" y="35" width="23" height="4" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	engine.King: `<path d="M21 4 L24 4 L24 8 L28 8 L28 11 L24 11 L24 15 L21 15 L21 11 L17 11 L17 8 L21 8 Z" fill="{F}" stroke="{S}" stroke-width="1.2"/>` +
		`<path d="M11 24 C11 14 34 14 34 24 L30.5 34 L14.5 34 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<rect x="12" y="34" width="21" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
}

func pieceSVG(p engine.Piece) []byte {
	fill, stroke := "#f8f8f8", "#1a1a1a"
	if p.Color() == engine.Black {
		fill, stroke = "#262626", "#d9d9d9"
	}
	body := strings.NewReplacer("{F}", fill, "{S}", stroke).Replace(pieceShapes[p.Type()])
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`)
}
