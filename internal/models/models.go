package models

import (
	"encoding/json"
	"time"
)

type Criterion string

const (
	CriterionNone         Criterion = ""
	CriterionAged         Criterion = "01 Mais de cinco anos de autuado"
	CriterionApproaching  Criterion = "02 A completar 5 anos de autuado"
	CriterionLongInOffice Criterion = "03 Mais de 5 meses na 3CAP"
	CriterionLoadDate     Criterion = "04 Data da carga"
)

// Rank orders criteria from most urgent (0) to least. Unknown values rank last.
func (c Criterion) Rank() int {
	switch c {
	case CriterionAged:
		return 0
	case CriterionApproaching:
		return 1
	case CriterionLongInOffice:
		return 2
	case CriterionLoadDate:
		return 3
	default:
		return 4
	}
}

type FallbackTier string

const (
	TierNone        FallbackTier = ""
	TierT0          FallbackTier = "T0"
	TierT1          FallbackTier = "T1"
	TierT2          FallbackTier = "T2"
	TierT3          FallbackTier = "T3"
	TierNoCandidate FallbackTier = "SEM_CANDIDATO"
)

type Case struct {
	ID               string     `json:"processo"`
	NatureGroup      string     `json:"grupo_natureza"`
	OriginOffice     string     `json:"orgao_origem"`
	DaysInOffice     int        `json:"dias_no_orgao"`
	AgeInSystem      int        `json:"tempo_tcerj"`
	WorkflowStatus   string     `json:"descricao_informacao"`
	PreAssignedStaff string     `json:"funcionario_informacao"`
	Annotation       string     `json:"obs,omitempty"`
	AnnotationDate   *time.Time `json:"data_obs,omitempty"`
	LastLoadDate     *time.Time `json:"data_ultima_carga,omitempty"`
	Seq              int        `json:"-"`

	Criterion        Criterion    `json:"criterio"`
	AssignedReviewer string       `json:"informante"`
	Locked           bool         `json:"locked"`
	FallbackTier     FallbackTier `json:"fallback_tier,omitempty"`
	FallbackReason   string       `json:"fallback_motivo,omitempty"`
	OutOfWhitelist   bool         `json:"fora_whitelist"`
	Carried          bool         `json:"continuidade"`
	Preferred        bool         `json:"preferido"`
}

type Reviewer struct {
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Available       bool     `json:"available"`
	AcceptedNatures []string `json:"accepted_natures,omitempty"`
	AcceptedOrigins []string `json:"accepted_origins,omitempty"`
	OnlyLocked      bool     `json:"only_locked"`
}

// Wildcard matches any value in a routing rule field.
const Wildcard = "(ANY)"

type Rule struct {
	Index        int    `json:"index"`
	Reviewer     string `json:"reviewer"`
	NatureGroup  string `json:"nature_group"`
	OriginOffice string `json:"origin_office"`
	Exclusive    bool   `json:"exclusive"`
}

type PoolMode string

const (
	PoolModeTwoPool PoolMode = "two_pool"
	PoolModeUnified PoolMode = "unified"
)

type PoolTopology struct {
	Mode           PoolMode `json:"mode"`
	General        []string `json:"general"`
	Special        []string `json:"special,omitempty"`
	SpecialOrigins []string `json:"special_origins,omitempty"`
}

type RoundRobinScope string

const (
	ScopeNaturePool RoundRobinScope = "nature_pool"
	ScopeNature     RoundRobinScope = "nature"
)

type Thresholds struct {
	Aged         int `json:"aged"`
	Approaching  int `json:"approaching"`
	LongInOffice int `json:"long_in_office"`
}

// RunConfig is everything the engine needs besides the case rows. It is never
// mutated by the engine.
type RunConfig struct {
	Reviewers       []Reviewer      `json:"reviewers"`
	Rules           []Rule          `json:"rules"`
	Pools           PoolTopology    `json:"pools"`
	Thresholds      Thresholds      `json:"thresholds"`
	Cap             int             `json:"cap"`
	RoundRobinScope RoundRobinScope `json:"round_robin_scope"`
}

// PreviousRun maps a case id to the reviewer that held it in the last run.
type PreviousRun map[string]string

type StickReport struct {
	Reviewer          string `json:"informante"`
	Candidates        int    `json:"candidatos"`
	Stuck             int    `json:"mantidos"`
	Moved             int    `json:"movidos"`
	BlockedOnlyLocked int    `json:"bloqueados_somente_exclusivos"`
	BlockedWhitelist  int    `json:"bloqueados_whitelist"`
	BlockedExclusive  int    `json:"bloqueados_exclusiva"`
}

type ReviewerList struct {
	Reviewer string `json:"informante"`
	Cases    []Case `json:"processos"`
	Total    int    `json:"total"`
}

const (
	RunRunning = "RUNNING"
	RunSuccess = "SUCCESS"
	RunFailed  = "FAILED"
)

type Run struct {
	ID         string          `json:"id"`
	Numero     string          `json:"numero"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
}

const (
	CategoryPreAssigned = "pre_atribuido"
	CategoryPrincipal   = "principal"
	CategoryNoCandidate = "sem_candidato"
)

type RunAssignment struct {
	RunID          string       `json:"run_id"`
	Category       string       `json:"categoria"`
	CaseID         string       `json:"processo"`
	Reviewer       string       `json:"informante"`
	NatureGroup    string       `json:"grupo_natureza"`
	OriginOffice   string       `json:"orgao_origem"`
	DaysInOffice   int          `json:"dias_no_orgao"`
	AgeInSystem    int          `json:"tempo_tcerj"`
	Criterion      Criterion    `json:"criterio"`
	Locked         bool         `json:"locked"`
	FallbackTier   FallbackTier `json:"fallback_tier"`
	FallbackReason string       `json:"fallback_motivo"`
}
