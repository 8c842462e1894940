package alerts

// Monitored é um material acompanhado pelo alerta de estoque mínimo.
type Monitored struct {
	Code            string `json:"codigo"`
	Name            string `json:"nome"`
	Enabled         bool   `json:"enabled"`
	AutoAddOnBuy    bool   `json:"autoAddOnPurchase"`
	AutoAddQuantity int    `json:"autoAddQuantity"`
	Notes           string `json:"notes,omitempty"`
}

// State é o estado de alerta de um material monitorado, criado sob
// demanda. PurchaseConfirmed cai sozinho quando o estoque normaliza.
type State struct {
	Code                string `json:"codigo"`
	LastAlertDate       string `json:"lastAlertDate,omitempty"` // AAAA-MM-DD
	CurrentQuantity     int    `json:"currentQuantity"`
	PurchaseConfirmed   bool   `json:"purchaseConfirmed"`
	PurchaseConfirmedAt string `json:"purchaseConfirmedDate,omitempty"`
}

type monitoredDoc struct {
	Materials []Monitored `json:"materials"`
}

type stateDoc struct {
	Alerts []State `json:"alerts"`
}
