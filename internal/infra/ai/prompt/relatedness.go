package prompt

import "fmt"

// RelatednessSystem asks for the yes/no coherence verdict with a strict
// JSON schema.
const RelatednessSystem = "Eres un verificador de coherencia empresarial para contratación pública. " +
	"Decide si la actividad económica declarada de un contribuyente es plausible frente a su razón social " +
	"y frente al objeto del proceso. Devuelve únicamente JSON válido con campos: " +
	`related (bool), confidence (0-100) y rationale (string).`

// RelatednessUser builds the relatedness question.
func RelatednessUser(actividad, razon, objeto string) string {
	return fmt.Sprintf(
		"Actividad económica principal: %s\nRazón social: %s\nObjeto del proceso: %s\n\n"+
			"¿La actividad es coherente con la razón social Y con el objeto? Responde con el JSON del esquema.",
		actividad, razon, objeto)
}
