package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/basketrules/pkg/types"
)

const namespace = "basketrules"

// Prometheus writes a run in the Prometheus text exposition format, suitable
// for the node_exporter textfile collector.
type Prometheus struct {
	Path string
}

func (p Prometheus) Name() string { return "prometheus" }

func (p Prometheus) Export(_ context.Context, run *types.Run) error {
	return writeAtomic(p.Path, func(f *os.File) error {
		return WriteMetrics(f, run)
	})
}

// ruleGauges maps metric names to their value on a rule.
var ruleGauges = []struct {
	name, help string
	value      func(types.Rule) float64
}{
	{"rule_support", "Fraction of transactions containing antecedents and consequents.", func(r types.Rule) float64 { return r.Support }},
	{"rule_antecedent_support", "Fraction of transactions containing the antecedents.", func(r types.Rule) float64 { return r.AntecedentSupport }},
	{"rule_consequent_support", "Fraction of transactions containing the consequents.", func(r types.Rule) float64 { return r.ConsequentSupport }},
	{"rule_confidence", "Rule confidence.", func(r types.Rule) float64 { return r.Confidence }},
	{"rule_lift", "Rule lift.", func(r types.Rule) float64 { return r.Lift }},
	{"rule_leverage", "Rule leverage.", func(r types.Rule) float64 { return r.Leverage }},
	{"rule_conviction", "Rule conviction.", func(r types.Rule) float64 { return r.Conviction }},
	{"rule_zhang", "Zhang's metric, in [-1, 1].", func(r types.Rule) float64 { return r.Zhang }},
}

// WriteMetrics registers gauges for run in a private registry and writes the
// gathered families to w.
func WriteMetrics(w io.Writer, run *types.Run) error {
	reg := prometheus.NewRegistry()

	runLabels := prometheus.Labels{"run_id": run.ID, "source": run.Source}
	transactions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "transactions",
		Help:        "Number of transactions analysed.",
		ConstLabels: runLabels,
	})
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "items",
		Help:        "Number of distinct items.",
		ConstLabels: runLabels,
	})
	started := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_timestamp_seconds",
		Help:        "Unix time the run started.",
		ConstLabels: runLabels,
	})
	itemsets := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "itemset_support",
		Help: "Support of each frequent itemset.",
	}, []string{"itemset", "length"})
	reg.MustRegister(transactions, items, started, itemsets)

	transactions.Set(float64(run.Transactions))
	items.Set(float64(run.Items))
	started.Set(float64(run.StartedAt.Unix()))
	for _, s := range run.Itemsets {
		itemsets.WithLabelValues(s.Key(), fmt.Sprint(s.Len())).Set(s.Support)
	}

	vecs := make([]*prometheus.GaugeVec, len(ruleGauges))
	for i, g := range ruleGauges {
		vecs[i] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: g.name, Help: g.help,
		}, []string{"antecedents", "consequents"})
		reg.MustRegister(vecs[i])
	}
	for _, r := range run.Rules {
		ante, cons := types.JoinItems(r.Antecedents), types.JoinItems(r.Consequents)
		for i, g := range ruleGauges {
			vecs[i].WithLabelValues(ante, cons).Set(g.value(r))
		}
	}

	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("export: gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("export: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ReadMetrics decodes a textfile written by WriteMetrics into metric
// families keyed by name.
func ReadMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("export: parse prometheus text: %w", err)
	}
	return mfs, nil
}

// GaugeValue returns the value of the gauge in mf whose labels include all
// of labels.
func GaugeValue(mf *dto.MetricFamily, labels map[string]string) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		if m.GetGauge() == nil || !hasLabels(m, labels) {
			continue
		}
		return m.GetGauge().GetValue(), true
	}
	return 0, false
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(want)
}
