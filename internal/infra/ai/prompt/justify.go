package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/licitai/internal/domain/ai"
)

// JustifySystem frames the narrative writer.
const JustifySystem = "Eres un asistente experto en análisis de licitaciones. " +
	"Redactas en español, en 3–4 párrafos máximo, claro y educativo para no técnicos. " +
	"Explica QUÉ hallazgos hay (legales, técnicos, económicos), POR QUÉ importan, cita evidencia cuando sea posible y cierra con recomendaciones prácticas."

// JustifyUser builds the narrative request. With a single document it asks
// for an evaluative summary; with several it asks for a comparative
// justification naming the proposed winner.
func JustifyUser(in ai.JustifyInput) string {
	objeto := in.Objeto
	if objeto == "" {
		objeto = "N/D"
	}
	datos, _ := json.Marshal(in.Rows)

	if in.NumDocs <= 1 {
		return fmt.Sprintf(
			"Redacta en español un resumen evaluativo breve (máx. 3–4 párrafos) y claro para no técnicos, "+
				"sobre el contrato analizado, explicando su nivel de cumplimiento legal, técnico y económico. "+
				"Usa los hallazgos (garantías, multas, plazos, materiales, procesos, tiempos, presupuestos, formas de pago), "+
				"y señala vacíos, inconsistencias o cláusulas ambiguas/faltantes, así como coherencia con los pliegos.\n\n"+
				"Objeto del proceso: %s.\nDatos: %s.\n\n"+
				"Cierra con recomendaciones concretas para fortalecer el contrato. Evita opiniones sin sustento.",
			objeto, datos)
	}

	ganador, total := "N/D", "N/D"
	if in.Winner != nil {
		ganador = in.Winner.Oferente
		total = fmt.Sprintf("%d", in.Winner.Total)
	}
	pesos, _ := json.Marshal(in.Pesos)
	return fmt.Sprintf(
		"Redacta en español una justificación breve (máx. 3–4 párrafos) y clara para no técnicos, "+
			"sobre cuál contrato es la mejor opción y por qué, comparando dimensiones legales, técnicas y económicas. "+
			"Usa los hallazgos: garantías, multas, plazos, materiales, procesos, tiempos, presupuestos y formas de pago; "+
			"considera vacíos/inconsistencias, cláusulas ambiguas/faltantes, coherencia con pliegos y riesgos.\n\n"+
			"Objeto del proceso: %s.\nPesos aplicados: %s.\nDatos: %s.\n"+
			"Ganador propuesto: %s con total %s.\n\n"+
			"Finaliza con un breve párrafo de recomendaciones para fortalecer el contrato ganador si aplica. Evita opiniones sin sustento.",
		objeto, pesos, datos, ganador, total)
}
