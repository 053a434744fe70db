package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical exact", "卷云", "cirrus"},
		{"canonical exact compound", "积雨云", "cumulonimbus"},
		{"alias exact", "乳状云", "mamma"},
		{"alias exact kh", "开尔文亥姆霍兹波", "kelvin_helmholtz"},
		{"leading and trailing space", "  荚状云 ", "lenticularis"},
		{"internal whitespace collapsed", "开尔文 亥姆霍兹波", "kelvin_helmholtz"},
		{"input contains canonical", "高积云系列", "altocumulus"},
		{"canonical contains input", "夜光", "noctilucent"},
		{"suffix stripped containment", "幞云", "pileus"},
		{"alias containment", "天边的珠母云彩", "nacreous"},
		{"no match", "香蕉", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.Resolve(tt.input))
		})
	}
}

func TestResolveExactBeatsContainment(t *testing.T) {
	c := MustLoad()
	// 积云 is a substring of 积雨云 and 层积云; the exact tier must win
	// before any containment is tried.
	require.Equal(t, "cumulus", c.Resolve("积云"))
	require.Equal(t, "stratus", c.Resolve("层云"))
}

func TestResolvePrefersMostSpecificName(t *testing.T) {
	c := MustLoad()
	// both 卷层云 and 卷云 are contained in the input; the longer
	// canonical name wins.
	require.Equal(t, "cirrostratus", c.Resolve("大片的卷层云覆盖天空"))
}
