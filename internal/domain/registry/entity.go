package registry

// Taxpayer is the consolidated registry record for one RUC as returned by
// the tax-authority service.
type Taxpayer struct {
	RUC               string `json:"numeroRuc"`
	RazonSocial       string `json:"razonSocial"`
	Estado            string `json:"estadoContribuyenteRuc"`
	Actividad         string `json:"actividadEconomicaPrincipal"`
	Fantasma          bool   `json:"contribuyenteFantasma"`
	TransaccionesInex bool   `json:"transaccionesInexistente"`
}

// Activo reports whether the taxpayer is in good standing with the registry.
func (t *Taxpayer) Activo() bool {
	return t.Estado == "" || t.Estado == "ACTIVO"
}

// Flagged reports whether the registry marked the taxpayer as a shell entity
// or as reporting nonexistent transactions.
func (t *Taxpayer) Flagged() bool {
	return t.Fantasma || t.TransaccionesInex
}
