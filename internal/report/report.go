// Package report renders a distribution result into the workbooks handed to
// managers and reviewers.
package report

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/models"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/tabular"
)

type Kind string

const (
	KindPreGeneral        Kind = "pre_geral"
	KindPrincipalGeneral  Kind = "principal_geral"
	KindPreReviewer       Kind = "pre_individual"
	KindPrincipalReviewer Kind = "principal_individual"
	KindNoCandidate       Kind = "sem_candidato"
	KindContinuity        Kind = "diagnostico_continuidade"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeZip  = "application/zip"
)

type File struct {
	Name     string
	Kind     Kind
	Reviewer string
	Data     []byte
}

// Input is the frozen engine output. Nothing here is mutated while rendering.
type Input struct {
	Numero         string
	Date           time.Time
	PreAssigned    []models.Case
	Principal      []models.Case
	NoCandidate    []models.Case
	PreLists       []models.ReviewerList
	PrincipalLists []models.ReviewerList
	StickReports   []models.StickReport
	Continuity     bool
}

type Bundle struct {
	Numero string
	Date   time.Time
	Files  []File
}

type Renderer struct {
	// Workers bounds concurrent workbook rendering. Zero means 4.
	Workers int
}

// Render builds every workbook of the run. Files come back in a fixed order:
// general tables, then per-reviewer files sorted by reviewer, then the
// no-candidate and continuity tables when present.
func (r Renderer) Render(ctx context.Context, in Input) (Bundle, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}

	type job struct {
		file   File
		sheets []tabular.Sheet
	}
	var jobs []job
	add := func(name string, kind Kind, reviewer string, sheets ...tabular.Sheet) {
		jobs = append(jobs, job{file: File{Name: name, Kind: kind, Reviewer: reviewer}, sheets: sheets})
	}

	add(PreGeneralName(in.Numero, in.Date), KindPreGeneral, "", caseSheet(in.PreAssigned, fullColumns))
	add(PrincipalGeneralName(in.Numero, in.Date), KindPrincipalGeneral, "", caseSheet(in.Principal, principalColumns))
	for _, l := range in.PreLists {
		add(ReviewerFileName(l.Reviewer, in.Numero, "pre_atribuida", in.Date), KindPreReviewer, l.Reviewer, caseSheet(l.Cases, preReviewerColumns))
	}
	for _, l := range in.PrincipalLists {
		add(ReviewerFileName(l.Reviewer, in.Numero, "principal", in.Date), KindPrincipalReviewer, l.Reviewer, caseSheet(l.Cases, reviewerColumns))
	}
	if len(in.NoCandidate) > 0 {
		add(NoCandidateName(in.Numero, in.Date), KindNoCandidate, "", caseSheet(in.NoCandidate, principalColumns))
	}
	if in.Continuity {
		add(ContinuityName(in.Numero, in.Date), KindContinuity, "", continuitySheet(in.StickReports))
	}

	files := make([]File, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := tabular.XLSXBytes(j.sheets...)
			if err != nil {
				return fmt.Errorf("render %s: %w", j.file.Name, err)
			}
			f := j.file
			f.Data = data
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return Bundle{Numero: in.Numero, Date: in.Date, Files: files}, nil
}

func (b Bundle) Find(kind Kind, reviewer string) (File, bool) {
	for _, f := range b.Files {
		if f.Kind == kind && f.Reviewer == reviewer {
			return f, true
		}
	}
	return File{}, false
}

// Reviewers lists everybody holding at least one individual file, sorted.
func (b Bundle) Reviewers() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range b.Files {
		if f.Reviewer == "" || seen[f.Reviewer] {
			continue
		}
		seen[f.Reviewer] = true
		out = append(out, f.Reviewer)
	}
	sort.Strings(out)
	return out
}

// Individuals returns the per-reviewer files, pre-assigned ones first.
func (b Bundle) Individuals() []File {
	var out []File
	for _, kind := range []Kind{KindPreReviewer, KindPrincipalReviewer} {
		for _, f := range b.Files {
			if f.Kind == kind {
				out = append(out, f)
			}
		}
	}
	return out
}

// IndividualsZip packs every per-reviewer file into one archive.
func (b Bundle) IndividualsZip() (File, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, b.Individuals()); err != nil {
		return File{}, err
	}
	return File{Name: IndividualsZipName(b.Numero, b.Date), Data: buf.Bytes()}, nil
}

func WriteZip(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func stamp(t time.Time) string {
	return t.Format("20060102")
}

func PreGeneralName(numero string, date time.Time) string {
	return fmt.Sprintf("%s_planilha_geral_pre_atribuida_%s.xlsx", numero, stamp(date))
}

func PrincipalGeneralName(numero string, date time.Time) string {
	return fmt.Sprintf("%s_planilha_geral_principal_%s.xlsx", numero, stamp(date))
}

// ReviewerFileName joins the reviewer's name with underscores.
func ReviewerFileName(reviewer, numero, category string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.xlsx", strings.ReplaceAll(reviewer, " ", "_"), numero, category, stamp(date))
}

func IndividualsZipName(numero string, date time.Time) string {
	return fmt.Sprintf("%s_planilhas_individuais_%s.zip", numero, stamp(date))
}

func NoCandidateName(numero string, date time.Time) string {
	return fmt.Sprintf("%s_sem_candidato_%s.xlsx", numero, stamp(date))
}

func ContinuityName(numero string, date time.Time) string {
	return fmt.Sprintf("%s_diagnostico_continuidade_%s.xlsx", numero, stamp(date))
}
