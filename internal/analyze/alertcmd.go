package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AdemirRed/Bot-Onn-Estoque/internal/domain/materials"
)

type AlertAction string

const (
	AlertConfirmPurchase AlertAction = "compra"
	AlertAdd             AlertAction = "adicionar"
	AlertRemove          AlertAction = "remover"
	AlertList            AlertAction = "listar"
	AlertHelp            AlertAction = "ajuda"
	AlertCheckNow        AlertAction = "estoque"
	AlertSetMin          AlertAction = "minimo"
	AlertNumeric         AlertAction = "numeric"
)

type AlertCommand struct {
	Action AlertAction
	Code   string
	Name   string
	Option int  // atalho numérico "1 6" / "2 6"
	Qty    int  // para /minimo
	Global bool // /minimo sem código
}

// Atalho de resposta ao alerta: "<opção> <código>".
var shorthandRe = regexp.MustCompile(`^(\d)\s+(\d{1,5})$`)

// parseAlertCommand devolve nil quando a mensagem não é um comando de
// alerta; o chamador segue então para a análise normal.
func parseAlertCommand(raw string) *AlertCommand {
	norm := materials.Normalize(raw)

	if m := shorthandRe.FindStringSubmatch(norm); m != nil {
		opt, _ := strconv.Atoi(m[1])
		return &AlertCommand{Action: AlertNumeric, Option: opt, Code: m[2]}
	}

	if !strings.HasPrefix(norm, "/") {
		return nil
	}
	fields := strings.Fields(norm)
	verb := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch verb {
	case "compra", "comprado", "comprei":
		if len(args) < 1 {
			return nil
		}
		return &AlertCommand{Action: AlertConfirmPurchase, Code: args[0]}

	case "adicionar":
		if len(args) < 1 {
			return nil
		}
		cmd := &AlertCommand{Action: AlertAdd, Code: args[0]}
		if len(args) > 1 {
			cmd.Name = strings.Join(args[1:], " ")
		}
		return cmd

	case "remover":
		if len(args) < 1 {
			return nil
		}
		return &AlertCommand{Action: AlertRemove, Code: args[0]}

	case "listar":
		if len(args) == 0 || args[0] == "alertas" {
			return &AlertCommand{Action: AlertList}
		}
		return nil

	case "ajuda":
		if len(args) == 0 || args[0] == "alertas" {
			return &AlertCommand{Action: AlertHelp}
		}
		return nil

	case "estoque":
		return &AlertCommand{Action: AlertCheckNow}

	case "minimo":
		switch len(args) {
		case 1:
			qty, err := strconv.Atoi(args[0])
			if err != nil {
				return nil
			}
			return &AlertCommand{Action: AlertSetMin, Qty: qty, Global: true}
		case 2:
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return nil
			}
			return &AlertCommand{Action: AlertSetMin, Code: args[0], Qty: qty}
		}
		return nil
	}
	return nil
}
