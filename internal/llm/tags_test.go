package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mediatag/internal/model"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "clean comma list",
			text: "paisaje, montaña, atardecer, naturaleza, naranja, tranquilo, exterior, cielo",
			want: []string{"paisaje", "montaña", "atardecer", "naturaleza", "naranja", "tranquilo", "exterior", "cielo"},
		},
		{
			name: "tag line after a preamble",
			text: "Aquí tienes las etiquetas:\n\n  retrato, mujer, sonrisa , estudio\nEspero que te sirvan.",
			want: []string{"retrato", "mujer", "sonrisa", "estudio"},
		},
		{
			name: "first comma line wins",
			text: "gato, negro, tejado\nperro, blanco, jardín",
			want: []string{"gato", "negro", "tejado"},
		},
		{
			name: "short and empty pieces dropped",
			text: "sol, , de, y, mar, luz, ola",
			want: []string{"sol", "mar", "luz", "ola"},
		},
		{
			name: "capped at ten",
			text: "uno1, dos2, tres, cuatro, cinco, seis, siete, ocho, nueve, diez, once, doce",
			want: []string{"uno1", "dos2", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve", "diez"},
		},
		{
			name: "length counted in characters",
			text: "ñú, árbol, río",
			want: []string{"árbol", "río"},
		},
		{
			name: "no comma falls back to periods and newlines",
			text: "Bosque. Niebla. Un\nMañana fría\nok",
			want: []string{"Bosque", "Niebla", "Mañana fría"},
		},
		{
			name: "long comma line is skipped for the fallback split",
			text: strings.Repeat("palabra ", 40) + ", final",
			want: []string{strings.TrimSpace(strings.Repeat("palabra ", 40)), "final"},
		},
		{
			name: "fallback respects the cap",
			text: "aaa.bbb.ccc.ddd.eee.fff.ggg.hhh.iii.jjj.kkk.lll",
			want: []string{"aaa", "bbb", "ccc", "ddd", "eee", "fff", "ggg", "hhh", "iii", "jjj"},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "blank",
			text: "  \n\t ",
			want: []string{},
		},
		{
			name: "nothing long enough",
			text: "ok. si\nno",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.text)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultTags(t *testing.T) {
	assert.Equal(t, []string{"fotografía", "imagen", "visual"}, DefaultTags(model.Photograph))
	assert.Equal(t, []string{"video", "multimedia", "audiovisual"}, DefaultTags(model.Video))
	assert.Equal(t, []string{"ilustración", "diseño", "arte digital"}, DefaultTags(model.Illustration))
	assert.Equal(t, []string{"3D", "modelado", "render"}, DefaultTags(model.ThreeD))
}

func TestDefaultTags_ReturnsCopy(t *testing.T) {
	tags := DefaultTags(model.Photograph)
	tags[0] = "changed"

	assert.Equal(t, "fotografía", DefaultTags(model.Photograph)[0])
}
