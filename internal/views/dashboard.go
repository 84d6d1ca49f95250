package views

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rfpdash/internal"
	"rfpdash/internal/util"
)

const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"
)

// Rate is a rounded percentage. Defined is false when the denominator was zero,
// in which case Percent is 0 and the rate renders as "0%".
type Rate struct {
	Percent int  `json:"percent" yaml:"percent"`
	Defined bool `json:"defined" yaml:"defined"`
}

func (r Rate) String() string {
	return fmt.Sprintf("%d%%", r.Percent)
}

func WinRate(won, discovered int) Rate {
	if discovered == 0 {
		return Rate{}
	}
	return Rate{Percent: roundPercent(float64(won), float64(discovered)), Defined: true}
}

// Percentages returns round(v/sum*100) for each value; a zero sum gives all zeros.
func Percentages(values []float64) []int {
	out := make([]int, len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = roundPercent(v, sum)
	}
	return out
}

func Band(probability int) string {
	switch {
	case probability >= 70:
		return BandHigh
	case probability >= 40:
		return BandMedium
	default:
		return BandLow
	}
}

type LabeledCount struct {
	Label   string `json:"label" yaml:"label"`
	Count   int    `json:"count" yaml:"count"`
	Percent int    `json:"percent" yaml:"percent"`
	Legend  string `json:"legend" yaml:"legend"`
}

type ProbabilityRow struct {
	RFP         string `json:"rfp" yaml:"rfp"`
	Probability int    `json:"probability" yaml:"probability"`
	Band        string `json:"band" yaml:"band"`
}

type CostRow struct {
	RFP          string  `json:"rfp" yaml:"rfp"`
	MaterialCost float64 `json:"material_cost" yaml:"material_cost"`
	TestingCost  float64 `json:"testing_cost" yaml:"testing_cost"`
}

type DashboardView struct {
	TotalRFPs             int              `json:"total_rfps" yaml:"total_rfps"`
	Won                   int              `json:"won" yaml:"won"`
	WinRate               Rate             `json:"win_rate" yaml:"win_rate"`
	ActiveAgents          int              `json:"active_agents" yaml:"active_agents"`
	AverageTechnicalMatch float64          `json:"average_technical_match" yaml:"average_technical_match"`
	HighProbabilityShare  int              `json:"high_probability_share" yaml:"high_probability_share"`
	Pipeline              []LabeledCount   `json:"pipeline" yaml:"pipeline"`
	Agents                []LabeledCount   `json:"agents" yaml:"agents"`
	WinProbability        []ProbabilityRow `json:"win_probability" yaml:"win_probability"`
	Costs                 []CostRow        `json:"costs" yaml:"costs"`
}

// Dashboard derives the KPI cards and chart legends from aggregated stats.
// Total RFPs is the "Discovered" stage count and Won the "Won" stage count;
// when the labels are missing the first and fifth counts are used.
func Dashboard(stats internal.DashboardStats) DashboardView {
	counts := stats.PipelineStatus.Counts
	view := DashboardView{
		TotalRFPs: stageCount(stats.PipelineStatus, "discovered", 0),
		Won:       stageCount(stats.PipelineStatus, "won", 4),
	}
	view.WinRate = WinRate(view.Won, view.TotalRFPs)
	view.Pipeline = labeled(stats.PipelineStatus.Labels, counts)
	view.Agents = labeled(stats.AgentContribution.Agents, stats.AgentContribution.Tasks)
	view.ActiveAgents = len(stats.AgentContribution.Agents)

	if scores := stats.TechnicalSpecs.MatchScores; len(scores) > 0 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		view.AverageTechnicalMatch = float64(sum) / float64(len(scores))
	}

	view.WinProbability = WinProbabilityRows(stats.WinProbability)
	high := 0
	for _, row := range view.WinProbability {
		if row.Band == BandHigh {
			high++
		}
	}
	view.HighProbabilityShare = roundPercent(float64(high), float64(len(view.WinProbability)))

	pb := stats.PricingBreakdown
	view.Costs = make([]CostRow, 0, len(pb.RFPs))
	for i, rfp := range pb.RFPs {
		view.Costs = append(view.Costs, CostRow{RFP: rfp, MaterialCost: at(pb.MaterialCost, i), TestingCost: at(pb.TestingCost, i)})
	}
	return view
}

// WinProbabilityRows pairs RFPs with their probability, highest first.
func WinProbabilityRows(wp internal.WinProbability) []ProbabilityRow {
	n := min(len(wp.RFPs), len(wp.WinProbability))
	rows := make([]ProbabilityRow, 0, n)
	for i := 0; i < n; i++ {
		p := wp.WinProbability[i]
		rows = append(rows, ProbabilityRow{RFP: wp.RFPs[i], Probability: p, Band: Band(p)})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Probability > rows[j].Probability })
	return rows
}

func stageCount(ps internal.PipelineStatus, label string, fallback int) int {
	for i, l := range ps.Labels {
		if strings.EqualFold(strings.TrimSpace(l), label) && i < len(ps.Counts) {
			return ps.Counts[i]
		}
	}
	if fallback < len(ps.Counts) {
		return ps.Counts[fallback]
	}
	return 0
}

func labeled(labels []string, counts []int) []LabeledCount {
	n := min(len(labels), len(counts))
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = float64(counts[i])
	}
	percents := Percentages(values)

	out := make([]LabeledCount, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, LabeledCount{
			Label:   labels[i],
			Count:   counts[i],
			Percent: percents[i],
			Legend:  fmt.Sprintf("%s (%d%%)", labels[i], percents[i]),
		})
	}
	return out
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

const (
	defaultStage       = "Proposal"
	defaultProbability = 75
)

type Opportunity struct {
	ID            string  `json:"id" yaml:"id"`
	Title         string  `json:"title" yaml:"title"`
	Company       string  `json:"company" yaml:"company"`
	Value         float64 `json:"value" yaml:"value"`
	Stage         string  `json:"stage" yaml:"stage"`
	Probability   int     `json:"probability" yaml:"probability"`
	Band          string  `json:"band" yaml:"band"`
	ExpectedClose string  `json:"expected_close" yaml:"expected_close"`
}

type SalesView struct {
	Empty              bool          `json:"empty" yaml:"empty"`
	Prompt             string        `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Opportunities      []Opportunity `json:"opportunities" yaml:"opportunities"`
	TotalOpportunities int           `json:"total_opportunities" yaml:"total_opportunities"`
	InPipeline         int           `json:"in_pipeline" yaml:"in_pipeline"`
	Won                int           `json:"won" yaml:"won"`
	Lost               int           `json:"lost" yaml:"lost"`
}

// Sales turns the held result into the sales pipeline. Stage and probability
// come from the sales proposal when it carries them.
func Sales(r *internal.RfpResult) SalesView {
	if r == nil {
		return SalesView{Empty: true, Prompt: EmptyPrompt, Opportunities: []Opportunity{}}
	}

	stage, probability := defaultStage, defaultProbability
	var proposal map[string]any
	if len(r.SalesProposal) > 0 && json.Unmarshal(r.SalesProposal, &proposal) == nil {
		if s, ok := util.First(proposal, "stage"); ok {
			if str, ok := util.ToString(s); ok && strings.TrimSpace(str) != "" {
				stage = strings.TrimSpace(str)
			}
		}
		if p, ok := util.First(proposal, "win_probability", "probability"); ok {
			if f, ok := util.ToFloat(p); ok {
				probability = int(util.ClampPercent(f) + 0.5)
			}
		}
	}

	opp := Opportunity{
		ID:            r.RfpID,
		Title:         r.Title,
		Company:       r.Issuer,
		Value:         r.Summary.GrandTotal,
		Stage:         stage,
		Probability:   probability,
		Band:          Band(probability),
		ExpectedClose: r.DueDate,
	}

	view := SalesView{Opportunities: []Opportunity{opp}, TotalOpportunities: 1}
	switch strings.ToLower(stage) {
	case "won", "closed won":
		view.Won = 1
	case "lost", "closed lost":
		view.Lost = 1
	default:
		view.InPipeline = 1
	}
	return view
}
