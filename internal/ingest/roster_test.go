package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

func TestParseRoster(t *testing.T) {
	tbl := tabular.New([]string{"informantes", "email", "disponibilidade"}, [][]string{
		{"ana", "ana@example.com", "Sim"},
		{"beto", "", "sim"},
		{"carla", "carla@example.com", "nao"},
		{"Carla", "carla@example.com", "sim"},
		{"", "x@example.com", "sim"},
		{"dani", "dani@example.com", "não"},
	})
	roster, err := ParseRoster(tbl)
	require.NoError(t, err)
	require.Len(t, roster, 4)

	byName := map[string]bool{}
	for _, r := range roster {
		byName[r.Name] = r.Available
	}
	require.Equal(t, map[string]bool{"ANA": true, "BETO": true, "CARLA": true, "DANI": false}, byName)

	emails := Emails(roster)
	require.Equal(t, map[string]string{"ANA": "ana@example.com", "CARLA": "carla@example.com"}, emails)
}

func TestParseRosterWithoutAvailability(t *testing.T) {
	roster, err := ParseRoster(tabular.New([]string{"Informantes"}, [][]string{{"ana"}}))
	require.NoError(t, err)
	require.True(t, roster[0].Available)

	_, err = ParseRoster(tabular.New([]string{"nome"}, nil))
	require.True(t, errors.Is(err, ErrMissingColumns))
}

func TestParsePrevious(t *testing.T) {
	prev, err := ParsePrevious(tabular.New([]string{"Processo", "Informante"}, [][]string{
		{"10.0", "ana"},
		{"11", ""},
		{"12", "Beto"},
	}))
	require.NoError(t, err)
	require.Equal(t, "ANA", prev["10"])
	require.Equal(t, "BETO", prev["12"])
	require.NotContains(t, prev, "11")

	_, err = ParsePrevious(tabular.New([]string{"Processo"}, nil))
	require.True(t, errors.Is(err, ErrMalformedPrevious))
}
