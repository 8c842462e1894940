package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

const divider = "━━━━━━━━━━━━━━━━━━"

var numberEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

func numberEmoji(i int) string {
	if i < len(numberEmojis) {
		return numberEmojis[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func greetingMessage() string {
	return "👋 *Olá! Sou o Bot de Estoque ONN*\n\n" +
		"Estou aqui para ajudar você a consultar nosso estoque de materiais de forma rápida e prática!\n\n" +
		"📦 *O que posso fazer:*\n" +
		"• Consultar chapas inteiras disponíveis\n" +
		"• Mostrar retalhos em estoque\n" +
		"• Informar espessuras e dimensões\n" +
		"• Indicar direção do veio (quando aplicável)\n\n" +
		"💬 *Como usar:*\n" +
		"Envie o nome do material e espessura\n" +
		"Exemplo: \"Branco Liso 18mm\" ou \"Noite Guara 18\"\n\n" +
		"🔍 *Dica:* Se não souber a espessura exata, envie apenas o nome do material e eu mostro as opções disponíveis!\n\n" +
		"Pronto para começar? Envie sua consulta! 🚀"
}

func timeoutMessage() string {
	return "⏰ *Tempo esgotado!*\n\n" +
		"O fluxo de seleção expirou por inatividade.\n\n" +
		"💡 Envie uma nova consulta quando precisar!"
}

func noMaterialMessage() string {
	return "Não consegui entender. Por favor, envie no formato:\n\n" +
		"📋 *Exemplos:*\n" +
		"• Branco Liso 18mm\n" +
		"• Branco Liso 18\n" +
		"• Noite Guara 18mm\n" +
		"• Carvalho Hanover 18\n\n" +
		"Ou especifique se quer:\n" +
		"• *Chapas* ou *Retalhos*"
}

// notFoundMessage mostra até três termos tentados.
func notFoundMessage(terms []string, thickness int) string {
	shown := terms
	if len(shown) > 3 {
		shown = shown[:3]
	}
	var b strings.Builder
	b.WriteString("❌ *Material não encontrado*\n\n")
	b.WriteString("Busca: " + strings.Join(shown, ", "))
	if thickness != 0 {
		fmt.Fprintf(&b, " %dmm", thickness)
	}
	b.WriteString("\n\n")
	b.WriteString("💡 *Dica:* Tente buscar apenas pela cor principal.\n")
	b.WriteString("Exemplo: \"Branco\" em vez de \"Branco Liso\"")
	return b.String()
}

func codeNotFoundMessage(code int) string {
	return fmt.Sprintf("❌ Material com código *%d* não encontrado.\n\n"+
		"💡 Tente buscar pelo nome do material.\n"+
		"Exemplo: \"Branco Liso 18mm\"", code)
}

func contextLostMessage() string {
	return "❌ Contexto perdido. Por favor, faça a busca novamente."
}

func genericErrorMessage() string {
	return "❌ Ops, algo deu errado ao processar sua mensagem. Tente novamente em instantes."
}

func reportHelpMessage() string {
	return "📊 *Relatórios de estoque*\n\n" +
		"Diga o que você quer no relatório:\n" +
		"• \"relatorio Branco Liso\"\n" +
		"• \"relatorio 18mm\"\n" +
		"• \"relatorio retalhos branco\"\n\n" +
		"📋 Também tenho a lista de materiais:\n" +
		"• \"lista de materiais\"\n" +
		"• \"lista 18mm\"\n" +
		"• \"planilha de materiais\""
}

// detailsMessage monta o cartão do material. Veio só aparece quando o
// material não é rotacionável; chapa base mostra a quantidade da linha
// canônica, senão cai para a contagem de linhas.
func detailsMessage(m *materials.Material, sheets []materials.Sheet, offcuts []materials.Offcut, kind string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s → *%s*\n", m.Code, m.Name)
	fmt.Fprintf(&b, "📏 Espessura: *%dmm*\n", m.ThicknessMm)

	if m.Rotatable {
		b.WriteString("🌾 Veio: Sem (rotacionável)\n")
	} else if m.GrainHorizontal || m.GrainVertical {
		dir := "Vertical"
		if m.GrainHorizontal {
			dir = "Horizontal"
		}
		fmt.Fprintf(&b, "🌾 Veio: %s\n", dir)
	}
	b.WriteString("\n")

	if kind != "retalho" && len(sheets) > 0 {
		baseQty := 0
		for _, sh := range sheets {
			if sh.IsBase() {
				baseQty = sh.ThirdField
				break
			}
		}
		if baseQty > 0 {
			fmt.Fprintf(&b, "📦 *CHAPAS* (2740x1840): *%d unidades*\n\n", baseQty)
		} else {
			fmt.Fprintf(&b, "📦 *CHAPAS INTEIRAS* (%d)\n\n", len(sheets))
		}
	}

	if kind != "chapa" && len(offcuts) > 0 {
		fmt.Fprintf(&b, "♻️ *RETALHOS* (%d)\n%s\n", len(offcuts), divider)

		sorted := make([]materials.Offcut, len(offcuts))
		copy(sorted, offcuts)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].AreaM2() > sorted[j].AreaM2()
		})

		shown := sorted
		if len(shown) > 15 {
			shown = shown[:15]
		}
		for i, r := range shown {
			fmt.Fprintf(&b, "%d. %.0fx%.0fmm (%.2fm²)", i+1, r.HeightMm, r.WidthMm, r.AreaM2())
			if r.Quantity > 1 {
				fmt.Fprintf(&b, " x%d", r.Quantity)
			}
			if r.Description != "" {
				fmt.Fprintf(&b, " | %s", strings.ToUpper(r.Description))
			}
			b.WriteString("\n")
		}
		if len(sorted) > 15 {
			fmt.Fprintf(&b, "... e mais %d retalhos\n", len(sorted)-15)
		}
		b.WriteString("\n")
	}

	if len(sheets) == 0 && len(offcuts) == 0 {
		b.WriteString("⚠️ *Sem estoque no momento*\n")
	}
	return b.String()
}

func optionsMessage(mats []materials.Material, thickness int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎨 *Encontrei %d materiais*\n", len(mats))
	if thickness != 0 {
		fmt.Fprintf(&b, "📏 Espessura: %dmm\n", thickness)
	}
	b.WriteString("\n" + divider + "\n")
	for i, m := range mats {
		fmt.Fprintf(&b, "%s %s → *%s*", numberEmoji(i), m.Code, m.Name)
		if thickness == 0 {
			fmt.Fprintf(&b, " (%dmm)", m.ThicknessMm)
		}
		b.WriteString("\n")
	}
	b.WriteString(divider + "\n\n")
	b.WriteString("💬 *Responda com o número* da opção desejada.")
	return b.String()
}

func thicknessQuestionMessage(term string, thicknesses []int) string {
	var b strings.Builder
	b.WriteString("📏 *Qual espessura?*\n\n")
	fmt.Fprintf(&b, "Material: *%s*\n\n", term)
	b.WriteString("Espessuras disponíveis:\n")
	for _, t := range thicknesses {
		fmt.Fprintf(&b, "• %dmm\n", t)
	}
	b.WriteString("\n💬 *Responda com a espessura* (ex: 18)")
	return b.String()
}
