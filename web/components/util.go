package components

//go:generate go tool templ generate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dasdy/turismo/model"
)

const pageTitle = "Entrada de turistas estrangeiros no Brasil, em percentual"

var intro = []string{
	"Turismo e suas curiosidades: algumas cidades da lista são destinos conhecidos no mundo inteiro, e a variação de visitantes de um ano para o outro mostra tendências interessantes para quem trabalha com turismo ou planejamento público.",
	"Cidades pra todo gosto: o levantamento cobre várias regiões do Brasil e mostra quais lugares têm atraído mais turistas ao longo do tempo.",
	"O tempo e o turismo: olhando ano a ano dá para perceber o impacto de grandes eventos e melhorias nas cidades.",
}

// ChartLink returns the image URL of a chart kind.
func ChartLink(kind model.ChartKind) string {
	return "/charts/" + string(kind)
}

// safeColor lets only hex colors into the page style, lower-cased as color inputs expect.
func safeColor(value, fallback string) string {
	if !model.IsHexColor(value) {
		value = fallback
	}

	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}

	// <input type="color"> only understands #rrggbb
	if len(value) == 4 {
		value = "#" + strings.Repeat(value[1:2], 2) + strings.Repeat(value[2:3], 2) + strings.Repeat(value[3:4], 2)
	}

	return strings.ToLower(value)
}

func formatCell(c model.Cell) string {
	if !c.Valid {
		return "<NA>"
	}

	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

func formatMean(c model.Cell) string {
	if !c.Valid {
		return "nan"
	}

	return strconv.FormatFloat(c.Value, 'f', 6, 64)
}

func fontColor(theme model.Theme) string {
	return safeColor(theme.FontColor, model.DefaultFontColor)
}

func panelColor(theme model.Theme) string {
	return safeColor(theme.PanelColor, model.DefaultPanelColor)
}

// themeStyle is written raw into the page head; both colors went through safeColor.
func themeStyle(theme model.Theme) string {
	return fmt.Sprintf(`<style>
	body { background-color: %s; }
	h1, h2, h3, h4, h5, h6, p, li, span, label, td, th { color: %s !important; }
</style>`, panelColor(theme), fontColor(theme))
}

func swatch(color string) string {
	return fmt.Sprintf(`<span style="background-color: %s"></span>`, safeColor(color, "#000000"))
}
