package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/obsidianstack/basketrules/internal/rules"
	"github.com/obsidianstack/basketrules/pkg/types"
)

const defaultWebhookTop = 5

// Webhook posts a JSON summary of a run to URL.
type Webhook struct {
	Type   string // slack | http
	URL    string
	Top    int
	Client *http.Client
}

func (w Webhook) Name() string { return "webhook/" + w.Type }

// Summary is the body posted by an http webhook.
type Summary struct {
	RunID        string        `json:"run_id"`
	Source       string        `json:"source"`
	StartedAt    time.Time     `json:"started_at"`
	Transactions int           `json:"transactions"`
	Items        int           `json:"items"`
	Itemsets     int           `json:"itemsets"`
	Rules        int           `json:"rules"`
	TopRules     []RuleSummary `json:"top_rules"`
}

// RuleSummary carries one rule. Non-finite metrics are null.
type RuleSummary struct {
	Antecedents []string `json:"antecedents"`
	Consequents []string `json:"consequents"`
	Support     float64  `json:"support"`
	Confidence  *float64 `json:"confidence"`
	Lift        *float64 `json:"lift"`
	Zhang       *float64 `json:"zhang"`
}

// Summarize builds the webhook payload, keeping the top rules by lift.
func Summarize(run *types.Run, top int) (Summary, error) {
	if top <= 0 {
		top = defaultWebhookTop
	}
	sorted, err := rules.SortBy(run.Rules, rules.MetricLift, false)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		RunID:        run.ID,
		Source:       run.Source,
		StartedAt:    run.StartedAt,
		Transactions: run.Transactions,
		Items:        run.Items,
		Itemsets:     len(run.Itemsets),
		Rules:        len(run.Rules),
		TopRules:     []RuleSummary{},
	}
	for _, r := range rules.Head(sorted, top) {
		s.TopRules = append(s.TopRules, RuleSummary{
			Antecedents: r.Antecedents,
			Consequents: r.Consequents,
			Support:     r.Support,
			Confidence:  finite(r.Confidence),
			Lift:        finite(r.Lift),
			Zhang:       finite(r.Zhang),
		})
	}
	return s, nil
}

func (w Webhook) Export(ctx context.Context, run *types.Run) error {
	s, err := Summarize(run, w.Top)
	if err != nil {
		return err
	}

	var body []byte
	switch w.Type {
	case "slack":
		body, err = json.Marshal(map[string]string{"text": slackText(s)})
	case "http":
		body, err = json.Marshal(s)
	default:
		return fmt.Errorf("export: unknown webhook type %q", w.Type)
	}
	if err != nil {
		return fmt.Errorf("export: encode webhook body: %w", err)
	}
	return w.post(ctx, body)
}

func (w Webhook) post(ctx context.Context, body []byte) error {
	if w.URL == "" {
		return fmt.Errorf("export: webhook %s has no URL", w.Type)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("export: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("export: http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("export: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func slackText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*basketrules* run %s: %d transactions, %d items, %d itemsets, %d rules",
		s.RunID, s.Transactions, s.Items, s.Itemsets, s.Rules)
	for _, r := range s.TopRules {
		fmt.Fprintf(&b, "\n• %s => %s (lift %s, zhang %s)",
			types.JoinItems(r.Antecedents), types.JoinItems(r.Consequents),
			formatPtr(r.Lift), formatPtr(r.Zhang))
	}
	return b.String()
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}
