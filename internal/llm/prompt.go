package llm

import (
	"fmt"

	"mediatag/internal/model"
)

const promptTemplate = "Analiza %s %s y proporciona entre 5 y 10 etiquetas descriptivas relevantes en español. " +
	"Cada etiqueta DEBE ser UNA SOLA PALABRA (sin espacios). " +
	"Las etiquetas deben describir:\n" +
	"- El tema principal\n" +
	"- Los elementos visuales\n" +
	"- El estilo\n" +
	"- Los colores\n" +
	"- El ambiente\n\n" +
	"IMPORTANTE: Responde ÚNICAMENTE con palabras individuales separadas por comas, " +
	"sin frases, sin espacios en las etiquetas, sin numeración. " +
	"Ejemplo correcto: paisaje, montaña, atardecer, naturaleza, naranja, tranquilo, exterior, cielo\n" +
	"Ejemplo INCORRECTO: paisaje de montaña, cielo naranja"

// BuildPrompt returns the tagging instruction for a document of type t.
func BuildPrompt(t model.DocumentType) string {
	return fmt.Sprintf(promptTemplate, demonstrative(t), t.Noun())
}

// demonstrative agrees in gender with the noun returned by DocumentType.Noun.
func demonstrative(t model.DocumentType) string {
	switch t {
	case model.Video, model.ThreeD:
		return "este"
	default:
		return "esta"
	}
}
