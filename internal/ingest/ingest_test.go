package ingest

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

var caseHeader = []string{
	"Processo", "Grupo Natureza", "Orgão Origem", "Dias no Orgão", "Tempo TCERJ",
	"Descrição Informação", "Funcionário Informação", "Tipo Processo", "Data Última Carga",
}

func caseRow(id, tipo, status, staff, load string) []string {
	return []string{id, " pessoal ", "sec a", "30", "400", status, staff, tipo, load}
}

func TestLoadCasesFilters(t *testing.T) {
	cases := tabular.New(caseHeader, [][]string{
		caseRow("1.0", "Principal", "", "", "01/01/2025"),
		caseRow("2", "Apenso", "", "", ""),
		caseRow("3", "PRINCIPAL", "", "", ""),
		caseRow("", "Principal", "", "", ""),
		caseRow("1", "Principal", "", "", ""),
		caseRow("4", "Principal", "", "", ""),
	})
	kept := tabular.New([]string{"Processo"}, [][]string{{"1"}, {"2"}, {"4"}})

	out, rep, err := LoadCases(Sources{Cases: cases, Kept: &kept})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "1", out[0].ID)
	require.Equal(t, "PESSOAL", out[0].NatureGroup)
	require.Equal(t, "SEC A", out[0].OriginOffice)
	require.Equal(t, 30, out[0].DaysInOffice)
	require.Equal(t, 400, out[0].AgeInSystem)
	require.Equal(t, 0, out[0].Seq)
	require.Equal(t, 1, out[1].Seq)

	require.Equal(t, 6, rep.Read)
	require.Equal(t, 1, rep.NotKept)
	require.Equal(t, 1, rep.NotPrincipal)
	require.Equal(t, 2, rep.Invalid)
	require.Equal(t, 2, rep.Accepted)
	require.Len(t, rep.Warnings, 2)
}

func TestLoadCasesObservations(t *testing.T) {
	cases := tabular.New(caseHeader, [][]string{
		caseRow("1", "Principal", "", "", "01/03/2025"),
		caseRow("2", "Principal", "", "", "01/03/2025"),
		caseRow("3", "Principal", "", "", "01/03/2025"),
	})
	obs := tabular.New([]string{"Processo", "Obs", "Data Obs"}, [][]string{
		{"1", "Análise suspensa por decisão", "10/03/2025"},
		{"2", "Análise suspensa", "10/02/2025"},
		{"3", "Aguardando documentos", "05/03/2025"},
	})

	out, rep, err := LoadCases(Sources{Cases: cases, Observations: &obs})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Suspended)
	require.Len(t, out, 2)
	require.Equal(t, "2", out[0].ID)
	require.Empty(t, out[0].Annotation, "stale observation must be ignored")
	require.Equal(t, "Aguardando documentos", out[1].Annotation)
	require.NotNil(t, out[1].AnnotationDate)
}

func TestLoadCasesMissingColumns(t *testing.T) {
	_, _, err := LoadCases(Sources{Cases: tabular.New([]string{"Processo", "Grupo Natureza"}, nil)})
	require.True(t, errors.Is(err, ErrMissingColumns))

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	require.Equal(t, "processos", mc.Table)
	require.Contains(t, mc.Columns, ColTempoTCERJ)

	cases := tabular.New(caseHeader, nil)
	obs := tabular.New([]string{"Processo"}, nil)
	_, _, err = LoadCases(Sources{Cases: cases, Observations: &obs})
	require.True(t, errors.As(err, &mc))
	require.Equal(t, "observacoes", mc.Table)
}

func TestLoadCasesWithoutTypeColumn(t *testing.T) {
	header := caseHeader[:7]
	cases := tabular.New(header, [][]string{{"9", "X", "Y", "1", "2", "", ""}})
	out, rep, err := LoadCases(Sources{Cases: cases})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Zero(t, rep.NotPrincipal)
}

func TestSplit(t *testing.T) {
	cases := tabular.New(caseHeader, [][]string{
		caseRow("1", "Principal", "Em Elaboração", "ana  souza", ""),
		caseRow("2", "Principal", "Concluída", "", ""),
		caseRow("3", "Principal", "Aguardando", "BETO", ""),
	})
	out, _, err := LoadCases(Sources{Cases: cases})
	require.NoError(t, err)

	pre, principal := Split(out)
	require.Len(t, pre, 1)
	require.Equal(t, "ANA SOUZA", pre[0].AssignedReviewer)
	require.Len(t, principal, 2)
	require.Empty(t, principal[0].AssignedReviewer)
}

func TestLoadCasesFromFormattedWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := make([]any, len(caseHeader))
	for i, h := range caseHeader {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"7", "PESSOAL", "SEC A", 1200, 1825, "", "", "PRINCIPAL", 45000}))
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "E2", thousands))
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "I2", "I2", date))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := tabular.Read("processos.xlsx", &buf)
	require.NoError(t, err)
	out, _, err := LoadCases(Sources{Cases: table})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 1200, out[0].DaysInOffice)
	require.Equal(t, 1825, out[0].AgeInSystem)
	require.NotNil(t, out[0].LastLoadDate)
	require.Equal(t, 2023, out[0].LastLoadDate.Year())
}

func TestParseDays(t *testing.T) {
	for in, want := range map[string]int{
		"12":         12,
		" 7 ":        7,
		"12,7":       12,
		"3.0":        3,
		"abc":        -1,
		"":           -1,
		"NaN":        -1,
		"-5":         -5,
		"1e400":      -1,
		"1.825":      1825,
		"1,825":      1825,
		"1.900":      1900,
		"12.345.678": 12345678,
		"1.825,5":    1825,
		"1,825.5":    1825,
		"1.5":        1,
		"1.82":       1,
		"1,825,5":    -1,
	} {
		require.Equal(t, want, ParseDays(in), "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	d := ParseDate("10/03/2025")
	require.NotNil(t, d)
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *d)

	d = ParseDate("2025-03-10 14:30:00")
	require.NotNil(t, d)
	require.Equal(t, 14, d.Hour())

	d = ParseDate("45000")
	require.NotNil(t, d)
	require.Equal(t, 2023, d.Year())

	require.Nil(t, ParseDate("ontem"))
	require.Nil(t, ParseDate(""))
}
