package domain

// Counter é o documento persistido de um escopo de sequência.
// Version é usada para o controle de concorrência otimista (OCC) do incremento.
type Counter struct {
	Scope   string `json:"scope"`
	Seq     int64  `json:"seq"`
	Version int64  `json:"version"`
}
