package llmfusion

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go-silversense/types"
)

// Divergence is one field where the model disagreed with the rules.
type Divergence struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Model string `json:"model"`
}

// Compare lists the differences between the rule record and the model
// record. Symptoms are compared as sets.
func Compare(rule, model types.SituationRecord) []Divergence {
	var out []Divergence
	if rule.SituationID != model.SituationID {
		out = append(out, Divergence{"situation_id", string(rule.SituationID), string(model.SituationID)})
	}
	if rule.EmergencyLevel != model.EmergencyLevel {
		out = append(out, Divergence{"emergency_level", string(rule.EmergencyLevel), string(model.EmergencyLevel)})
	}
	if !sameSet(rule.Symptoms, model.Symptoms) {
		out = append(out, Divergence{"symptoms", strings.Join(rule.Symptoms, ","), strings.Join(model.Symptoms, ",")})
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

// Report is the outcome of one audit.
type Report struct {
	Model       *types.SituationRecord `json:"model,omitempty"`
	Divergences []Divergence           `json:"divergences"`
	Err         string                 `json:"error,omitempty"`
}

// Agrees reports whether the model matched the rules on every field.
func (r Report) Agrees() bool {
	return r.Err == "" && len(r.Divergences) == 0
}

// Auditor runs the model classifier against finished rule records.
type Auditor struct {
	cls     *Classifier
	timeout time.Duration
}

func NewAuditor(cls *Classifier, timeout time.Duration) *Auditor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Auditor{cls: cls, timeout: timeout}
}

// Audit classifies the inputs of rule with the model and reports any
// disagreement. It never changes rule.
func (a *Auditor) Audit(ctx context.Context, rule types.SituationRecord) Report {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	model, err := a.cls.Classify(ctx, rule.Speech, rule.Sound, rule.Meta)
	if err != nil {
		log.Printf("LLM fusion audit failed for %s: %v", rule.SituationID, err)
		return Report{Err: err.Error()}
	}

	rep := Report{Model: &model, Divergences: Compare(rule, model)}
	for _, d := range rep.Divergences {
		log.Printf("LLM fusion diverged on %s: rule=%s model=%s", d.Field, d.Rule, d.Model)
	}
	return rep
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s: rule=%s model=%s", d.Field, d.Rule, d.Model)
}
