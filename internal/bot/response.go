// Package bot é o motor de conversa: recebe o texto de um usuário,
// resolve a intenção contra o catálogo e devolve a resposta pronta
// para envio. Nunca fala com o transporte diretamente.
package bot

type Kind string

const (
	KindGreeting        Kind = "greeting"
	KindTimeout         Kind = "timeout"
	KindMaterialDetails Kind = "material_details"
	KindMaterialOptions Kind = "material_options"
	KindAskThickness    Kind = "ask_thickness"
	KindSelection       Kind = "selection"
	KindNotFound        Kind = "not_found"
	KindNoMaterial      Kind = "no_material"
	KindReport          Kind = "report"
	KindMaterialList    Kind = "material_list"
	KindReportHelp      Kind = "report_help"
	KindError           Kind = "error"
	KindAlert           Kind = "alert"
)

// Response é o contrato com a camada de envio: Message vira texto no
// chat, Filepath (quando presente) vira anexo de documento.
type Response struct {
	Kind     Kind
	Message  string
	Filepath string
	Filename string
}
