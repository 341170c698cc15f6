package oracle_test

import (
	"testing"

	"github.com/hunchagency/dot/internal/oracle"
	"github.com/stretchr/testify/require"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"tagged fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"trailing fence only", "{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, oracle.StripFence(tt.in))
		})
	}
}

func TestParse_FencedMatchesUnfenced(t *testing.T) {
	body := `{"route":"triage","confidence":"high","nested":{"k":[1,2]}}`
	plain, err := oracle.Parse(body)
	require.NoError(t, err)
	fenced, err := oracle.Parse("```json\n" + body + "\n```")
	require.NoError(t, err)
	require.Equal(t, plain, fenced)
}

func TestParse_Errors(t *testing.T) {
	for _, raw := range []string{"", "```json\n```", "not json", "[1,2]", "null", `{"a":1} trailing`} {
		_, err := oracle.Parse(raw)
		var parseErr *oracle.ParseError
		require.ErrorAs(t, err, &parseErr, "input %q", raw)
		require.Equal(t, raw, parseErr.Raw)
	}
}
