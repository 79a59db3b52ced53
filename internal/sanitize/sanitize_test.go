package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"American Bullfrog", "american_bullfrog"},
		{"Red-eyed Tree Frog", "red_eyed_tree_frog"},
		{"Cope's Gray Treefrog", "copes_gray_treefrog"},
		{"Frog (sp.)", "frog_sp"},
		{"Toads/Frogs", "toads_frogs"},
		{"Lithobates sp.", "lithobates_sp"},
		{`a\b:c*d?e"f<g>h|i`, "abcdefghi"},
		{"tab\there", "tab_here"},
		{"", ""},
		{"...", ""},
		{"Grenouille Verte É", "grenouille_verte_é"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FolderName(tt.in))
		})
	}
}

func TestFolderName_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"American Bullfrog",
		"Cope's Gray Treefrog (Hyla chrysoscelis)",
		"  -- weird /// input .. ",
		"ÀÉÎ Õü",
		"Unknown Frog",
		"",
	}

	for _, in := range inputs {
		once := FolderName(in)
		assert.Equal(t, once, FolderName(once), "input %q", in)
	}
}

func TestFolderName_NoForbiddenCharacters(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Cope's Gray Treefrog (Hyla chrysoscelis)",
		"a-b c/d.e'f(g)h",
		"../../etc/passwd",
	}

	for _, in := range inputs {
		out := FolderName(in)
		assert.False(t, strings.ContainsAny(out, " -'()/."), "output %q of %q", out, in)
		assert.Equal(t, strings.ToLower(out), out)
	}
}
