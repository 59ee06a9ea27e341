package report

import (
	"time"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

const sheetName = "Planilha"

type column struct {
	Header string
	Value  func(c models.Case) any
}

var (
	colProcesso    = column{"Processo", func(c models.Case) any { return c.ID }}
	colNatureza    = column{"Grupo Natureza", func(c models.Case) any { return c.NatureGroup }}
	colOrgao       = column{"Orgão Origem", func(c models.Case) any { return c.OriginOffice }}
	colDias        = column{"Dias no Orgão", func(c models.Case) any { return c.DaysInOffice }}
	colTempo       = column{"Tempo TCERJ", func(c models.Case) any { return c.AgeInSystem }}
	colDescricao   = column{"Descrição Informação", func(c models.Case) any { return c.WorkflowStatus }}
	colFuncionario = column{"Funcionário Informação", func(c models.Case) any { return c.PreAssignedStaff }}
	colObs         = column{"Obs", func(c models.Case) any { return c.Annotation }}
	colDataObs     = column{"Data Obs", func(c models.Case) any { return formatDate(c.AnnotationDate) }}
	colCriterio    = column{"Critério", func(c models.Case) any { return string(c.Criterion) }}
	colInformante  = column{"Informante", func(c models.Case) any { return c.AssignedReviewer }}
	colLocked      = column{"Locked", func(c models.Case) any { return c.Locked }}
	colTier        = column{"Fallback Tier", func(c models.Case) any { return string(c.FallbackTier) }}
	colMotivo      = column{"Fallback Motivo", func(c models.Case) any { return c.FallbackReason }}
	colForaLista   = column{"ForaWhitelist", func(c models.Case) any { return c.OutOfWhitelist }}
	colPreferido   = column{"Preferido", func(c models.Case) any { return c.Preferred }}
)

var (
	fullColumns = []column{
		colProcesso, colNatureza, colOrgao, colDias, colTempo, colDescricao,
		colFuncionario, colObs, colDataObs, colCriterio, colInformante,
	}
	// workflow columns are meaningless once the case is redistributed
	principalColumns = []column{
		colProcesso, colNatureza, colOrgao, colDias, colTempo, colObs, colDataObs,
		colCriterio, colInformante, colLocked, colTier, colMotivo,
	}
	preReviewerColumns = append(append([]column(nil), fullColumns...), colLocked, colForaLista)
	reviewerColumns    = append(append([]column(nil), principalColumns...), colForaLista, colPreferido)
)

func caseSheet(cases []models.Case, cols []column) tabular.Sheet {
	sh := tabular.Sheet{Name: sheetName, HighlightColumn: colNatureza.Header}
	for _, c := range cols {
		sh.Header = append(sh.Header, c.Header)
	}
	for _, cs := range cases {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.Value(cs)
		}
		sh.Rows = append(sh.Rows, row)
	}
	return sh
}

func continuitySheet(reports []models.StickReport) tabular.Sheet {
	sh := tabular.Sheet{
		Name: sheetName,
		Header: []string{
			"Informante", "Candidatos", "Mantidos", "Movidos",
			"Bloqueados Somente Exclusivos", "Bloqueados Whitelist", "Bloqueados Exclusiva",
		},
	}
	for _, r := range reports {
		sh.Rows = append(sh.Rows, []any{
			r.Reviewer, r.Candidates, r.Stuck, r.Moved,
			r.BlockedOnlyLocked, r.BlockedWhitelist, r.BlockedExclusive,
		})
	}
	return sh
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
