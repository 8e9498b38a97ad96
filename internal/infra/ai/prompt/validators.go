package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// System prompts per category. Each reviewer persona asks for the same
// strict JSON schema: issues (type, where, evidence, severity,
// recommendation) plus a 0-100 conformity score.
var validatorSystems = map[evaluation.Category]string{
	evaluation.CategoryLegal: "Eres un analista legal de licitaciones. Con el contexto de referencia y el texto de la propuesta, " +
		"verifica garantías, multas y plazos.",
	evaluation.CategoryTecnico: "Eres un analista técnico de licitaciones. Con el contexto de referencia y la propuesta, " +
		"verifica requisitos técnicos: materiales, procesos y tiempos.",
	evaluation.CategoryEconomico: "Eres un analista económico de licitaciones. Con el contexto de referencia y la propuesta, " +
		"verifica condiciones económicas: presupuesto y formas de pago.",
	evaluation.CategoryIncons: "Eres un auditor de coherencia contractual. Con el contexto de referencia y la propuesta/contrato, " +
		"detecta ambigüedades, contradicciones o cláusulas faltantes; valida que el documento refleje los pliegos.",
}

// Tasks per category, appended to the shared payload.
var validatorTasks = map[evaluation.Category]string{
	evaluation.CategoryLegal:     "Tarea: verifica GARANTÍAS, MULTAS y PLAZOS según lo exigido. Si falta algo, o es ambiguo, repórtalo como issue. Puntúa de 0-100 la conformidad legal.",
	evaluation.CategoryTecnico:   "Tarea: verifica REQUISITOS TÉCNICOS (materiales, procesos, tiempos). Reporta faltantes/ambigüedades y puntúa conformidad técnica (0-100).",
	evaluation.CategoryEconomico: "Tarea: verifica CONDICIONES ECONÓMICAS (presupuesto, hitos, formas de pago). Reporta faltantes/ambigüedades y puntúa conformidad económica (0-100).",
	evaluation.CategoryIncons:    "Tarea: detectar INCONSISTENCIAS (ambigüedades, contradicciones, faltantes) y validar COHERENCIA con los pliegos. Entregar issues detallados y score 0-100.",
}

const validatorSchema = ` Devuelve únicamente JSON válido con campos: ` +
	`issues (array de objetos con type, where, evidence, severity ALTO|MEDIO|BAJO, recommendation) y score (0-100).`

// ValidatorSystem returns the system prompt for one category.
func ValidatorSystem(category evaluation.Category) string {
	sys, ok := validatorSystems[category]
	if !ok {
		sys = "Eres un analista de licitaciones."
	}
	return sys + validatorSchema
}

// ValidatorUser builds the user message: retrieved context, document text,
// and the category task. Inputs arrive already truncated by the caller.
func ValidatorUser(category evaluation.Category, document string, snippets []evaluation.Snippet) string {
	var ctx strings.Builder
	for i, sn := range snippets {
		if i > 0 {
			ctx.WriteString("\n---\n")
		}
		fmt.Fprintf(&ctx, "Fuente: %s\n%s", sn.Source, sn.Text)
	}
	task := validatorTasks[category]
	return fmt.Sprintf("Contexto (referencia):\n%s\n\nPropuesta:\n%s\n\n%s\n\nSalida estricta JSON con campos: issues (array) y score (0-100).",
		ctx.String(), document, task)
}
