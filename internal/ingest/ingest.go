// Package ingest turns the uploaded tables into normalized cases, the reviewer
// roster and the previous-run map.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

const (
	ColProcesso        = "Processo"
	ColGrupoNatureza   = "Grupo Natureza"
	ColOrgaoOrigem     = "Orgão Origem"
	ColDiasNoOrgao     = "Dias no Orgão"
	ColTempoTCERJ      = "Tempo TCERJ"
	ColDataCarga       = "Data Última Carga"
	ColDescricao       = "Descrição Informação"
	ColFuncionario     = "Funcionário Informação"
	ColTipoProcesso    = "Tipo Processo"
	ColObs             = "Obs"
	ColDataObs         = "Data Obs"
	ColInformante      = "Informante"
	ColInformantes     = "informantes"
	ColEmail           = "email"
	ColDisponibilidade = "disponibilidade"
)

var RequiredCaseColumns = []string{
	ColProcesso, ColGrupoNatureza, ColOrgaoOrigem, ColDiasNoOrgao,
	ColTempoTCERJ, ColDescricao, ColFuncionario,
}

const suspendedMarker = "análise suspensa"

var (
	ErrMissingColumns    = errors.New("missing required columns")
	ErrMalformedPrevious = errors.New("previous run table lacks Processo/Informante")
)

// MissingColumnsError names the table and the absent columns.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s sem colunas %s", ErrMissingColumns, e.Table, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}

type Sources struct {
	Cases        tabular.Table
	Kept         *tabular.Table
	Observations *tabular.Table
}

type Report struct {
	Read         int      `json:"read"`
	NotKept      int      `json:"not_kept"`
	NotPrincipal int      `json:"not_principal"`
	Suspended    int      `json:"suspended"`
	Invalid      int      `json:"invalid"`
	Accepted     int      `json:"accepted"`
	Warnings     []string `json:"warnings,omitempty"`
}

// LoadCases applies the kept-id filter, the Principal type filter, the
// observation overlay and the suspended-analysis exclusion. Rows without id
// and repeated ids are rejected with a warning.
func LoadCases(src Sources) ([]models.Case, Report, error) {
	var rep Report
	if missing := src.Cases.Missing(RequiredCaseColumns...); len(missing) > 0 {
		return nil, rep, &MissingColumnsError{Table: "processos", Columns: missing}
	}

	var kept map[string]bool
	if src.Kept != nil {
		if missing := src.Kept.Missing(ColProcesso); len(missing) > 0 {
			return nil, rep, &MissingColumnsError{Table: "processosmanter", Columns: missing}
		}
		kept = map[string]bool{}
		for _, row := range src.Kept.Rows {
			if id := normalizeID(src.Kept.Get(row, ColProcesso)); id != "" {
				kept[id] = true
			}
		}
	}

	obs, err := observations(src.Observations)
	if err != nil {
		return nil, rep, err
	}

	t := src.Cases
	filterType := t.Has(ColTipoProcesso)
	seen := map[string]bool{}
	var out []models.Case
	for i, row := range t.Rows {
		rep.Read++
		id := normalizeID(t.Get(row, ColProcesso))
		if id == "" {
			rep.Invalid++
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("linha %d: processo sem número", i+2))
			continue
		}
		if kept != nil && !kept[id] {
			rep.NotKept++
			continue
		}
		if filterType && !strings.EqualFold(strings.TrimSpace(t.Get(row, ColTipoProcesso)), "PRINCIPAL") {
			rep.NotPrincipal++
			continue
		}
		if seen[id] {
			rep.Invalid++
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("linha %d: processo %s repetido", i+2, id))
			continue
		}
		seen[id] = true

		c := models.Case{
			ID:               id,
			NatureGroup:      models.NormalizeCategory(t.Get(row, ColGrupoNatureza)),
			OriginOffice:     models.NormalizeCategory(t.Get(row, ColOrgaoOrigem)),
			DaysInOffice:     ParseDays(t.Get(row, ColDiasNoOrgao)),
			AgeInSystem:      ParseDays(t.Get(row, ColTempoTCERJ)),
			WorkflowStatus:   strings.ToLower(strings.TrimSpace(t.Get(row, ColDescricao))),
			PreAssignedStaff: models.NormalizeName(t.Get(row, ColFuncionario)),
			LastLoadDate:     ParseDate(t.Get(row, ColDataCarga)),
			Seq:              len(out),
		}
		if o, ok := obs[id]; ok {
			applyObservation(&c, o)
		}
		if strings.Contains(strings.ToLower(c.Annotation), suspendedMarker) {
			rep.Suspended++
			continue
		}
		out = append(out, c)
	}
	rep.Accepted = len(out)
	return out, rep, nil
}

var preAssignedStatuses = map[string]bool{
	"em elaboração": true,
	"concluída":     true,
}

// Split separates cases already bound to staff by their workflow status from
// the pool that needs distribution. Pre-assigned cases get the staff member
// as reviewer.
func Split(cases []models.Case) (pre, principal []models.Case) {
	for _, c := range cases {
		if preAssignedStatuses[c.WorkflowStatus] && c.PreAssignedStaff != "" {
			c.AssignedReviewer = c.PreAssignedStaff
			pre = append(pre, c)
			continue
		}
		principal = append(principal, c)
	}
	return pre, principal
}

type observation struct {
	text string
	date *time.Time
}

func observations(t *tabular.Table) (map[string]observation, error) {
	out := map[string]observation{}
	if t == nil {
		return out, nil
	}
	if missing := t.Missing(ColProcesso, ColObs, ColDataObs); len(missing) > 0 {
		return nil, &MissingColumnsError{Table: "observacoes", Columns: missing}
	}
	for _, row := range t.Rows {
		id := normalizeID(t.Get(row, ColProcesso))
		if id == "" {
			continue
		}
		if _, dup := out[id]; dup {
			continue
		}
		out[id] = observation{text: strings.TrimSpace(t.Get(row, ColObs)), date: ParseDate(t.Get(row, ColDataObs))}
	}
	return out, nil
}

// applyObservation honors the note only when it is newer than the last load.
func applyObservation(c *models.Case, o observation) {
	if o.date == nil || c.LastLoadDate == nil || !o.date.After(*c.LastLoadDate) {
		c.Annotation = ""
		c.AnnotationDate = nil
		return
	}
	c.Annotation = o.text
	c.AnnotationDate = o.date
}

// groupedDigits matches counts written with a thousands separator, either
// "1.825" or "1,825". A day count never carries three decimals.
var groupedDigits = regexp.MustCompile(`^-?\d{1,3}(?:(?:\.\d{3})+|(?:,\d{3})+)$`)

// ParseDays reads a day count. Thousands separators are dropped and a
// fractional part is truncated. Anything non-numeric yields -1.
func ParseDays(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return -1
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if groupedDigits.MatchString(v) {
		n, err := strconv.Atoi(strings.NewReplacer(".", "", ",", "").Replace(v))
		if err != nil {
			return -1
		}
		return n
	}

	dot, comma := strings.LastIndex(v, "."), strings.LastIndex(v, ",")
	switch {
	case dot >= 0 && comma > dot:
		// 1.825,5
		v = strings.Replace(strings.ReplaceAll(v, ".", ""), ",", ".", 1)
	case comma >= 0 && dot > comma:
		// 1,825.5
		v = strings.ReplaceAll(v, ",", "")
	case comma >= 0:
		v = strings.Replace(v, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return -1
	}
	return int(f)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"01-02-06",
	"1/2/06 15:04",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts ISO, Brazilian and spreadsheet serial dates. Unparseable
// input yields nil.
func ParseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 && serial < 2958466 {
		t := excelEpoch.Add(time.Duration(serial * float64(24*time.Hour)))
		return &t
	}
	return nil
}

func normalizeID(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, ".0") {
		if _, err := strconv.Atoi(strings.TrimSuffix(v, ".0")); err == nil {
			return strings.TrimSuffix(v, ".0")
		}
	}
	return v
}
