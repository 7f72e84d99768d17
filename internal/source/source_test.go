package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		link string
		want string
	}{
		{
			name: "ntrs citation page",
			link: "https://ntrs.nasa.gov/citations/20240001234",
			want: "ntrs:20240001234",
		},
		{
			name: "ntrs api link",
			link: "https://ntrs.nasa.gov/api/citations/20240001234",
			want: "ntrs:20240001234",
		},
		{
			name: "federal register document",
			link: "https://www.federalregister.gov/documents/2024/06/14/2024-13001/airworthiness-directives-transport",
			want: "fedreg:2024-13001",
		},
		{
			name: "plain web result keys on its url",
			link: "https://example.org/reports/fatigue.pdf",
			want: "https://example.org/reports/fatigue.pdf",
		},
		{
			name: "unrecognized government page",
			link: "https://www.faa.gov/newsroom/some-announcement",
			want: "https://www.faa.gov/newsroom/some-announcement",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, RecoverID(tc.link))
		})
	}
}

func TestNilGateAdmitsEverything(t *testing.T) {
	t.Parallel()

	var g *Gate
	require.NoError(t, g.Admit(context.Background(), "https://example.org/anything"))
}
