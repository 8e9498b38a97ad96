package evaluation

import "fmt"

// Topic is one retrieval subject over the reference corpus.
type Topic string

const (
	TopicGarantias  Topic = "garantias"
	TopicMultas     Topic = "multas"
	TopicPlazos     Topic = "plazos"
	TopicTecnicos   Topic = "tecnicos"
	TopicEconomicos Topic = "economicos"
	TopicCoherencia Topic = "coherencia"
)

// AllTopics is the fixed topic set queried for every document.
var AllTopics = []Topic{
	TopicGarantias, TopicMultas, TopicPlazos,
	TopicTecnicos, TopicEconomicos, TopicCoherencia,
}

// topicLabels expands each topic into the phrasing used in the retrieval
// query.
var topicLabels = map[Topic]string{
	TopicGarantias:  "garantías",
	TopicMultas:     "multas",
	TopicPlazos:     "plazos",
	TopicTecnicos:   "requisitos técnicos, materiales, procesos y tiempos",
	TopicEconomicos: "condiciones económicas, presupuestos y formas de pago",
	TopicCoherencia: "validación de que contrato/propuesta refleja pliegos",
}

const (
	// excerpt of the document appended to every topic query
	maxQueryExcerptChars = 1500
	// excerpt of the document taken as the retrieval anchor
	maxRetrievalExcerptChars = 4000
)

// topicQuery builds the corpus query for one topic, anchored on an excerpt
// of the document under review.
func topicQuery(t Topic, excerpt string) string {
	label := topicLabels[t]
	if label == "" {
		label = string(t)
	}
	q := fmt.Sprintf("Extrae reglas y requisitos sobre: %s. Cita textualmente si es posible.", label)
	if excerpt != "" {
		q += "\n\nCONSIDERA ESTE CONTEXTO DE LA PROPUESTA:\n" + truncate(excerpt, maxQueryExcerptChars)
	}
	return q
}
