package rewrite

import (
	"fmt"
	"strings"
)

// promptTemplate asks the model for an improved title, description and tag
// list in three labelled lines. Arguments: title, description, tags.
const promptTemplate = `Mejora estos metadatos de video de YouTube siguiendo EXACTAMENTE el formato solicitado:

METADATOS ACTUALES:
TÍTULO: %s
DESCRIPCIÓN: %s
TAGS ACTUALES: %s

INSTRUCCIONES ESPECÍFICAS:

1. TÍTULO (sin emojis y sin nombre de actores):
- Mantener el nombre de película/serie en MAYÚSCULAS
- SIEMPRE incluir la palabra "Tráiler" o "Trailer"
- Si menciona "español latino", mantener esas palabras
- Mantener el año entre paréntesis (2025)
- Hacer el título más atractivo y profesional

2. DESCRIPCIÓN (300-600 palabras):
- Crear una descripción completamente nueva y atractiva
- Incluir emojis relevantes (🎬🔥⚡🎭)
- Añadir información intrigante sobre la película/serie
- Incluir llamados a la acción (like, comentario, suscripción)
- Añadir al menos 10 hashtags relevantes al final
- Hacer que suene profesional y emocionante

3. TAGS:
- Quitar al menos 2-3 tags actuales
- Añadir 3-5 tags nuevos más específicos y relevantes
- Total final: entre 5 y 12 tags optimizados
- Incluir tags en español e inglés
- Priorizar tags relacionados con tráilers, películas y entretenimiento

FORMATO DE RESPUESTA REQUERIDO:
TÍTULO: [título mejorado sin emojis]
DESCRIPCIÓN: [descripción completa con emojis y hashtags]
TAGS: [tag1, tag2, tag3, etc.]

Responde SOLO con el formato anterior, sin explicaciones adicionales.`

// BuildPrompt renders the rewrite request for the current metadata.
func BuildPrompt(title, description string, tags []string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(title), strings.TrimSpace(description), strings.Join(tags, ", "))
}
