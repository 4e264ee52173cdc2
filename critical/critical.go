// Package critical splits rule set into rules needed for the first paint and
// the rest. The split is a strict partition: every rule ends up in exactly one
// part and rule text is never changed.
package critical

import (
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"silk/css"
)

// DefaultAutoSelectors are structural selectors considered above the fold.
var DefaultAutoSelectors = []string{
	"html", "body", "header", "nav", "main", "h1",
	".header", ".nav", ".navbar", ".hero", ".logo", "#header", ".above-fold",
}

// DefaultFoldElements is number of leading body elements inspected when
// document is supplied.
const DefaultFoldElements = 40

// Options control partitioning.
type Options struct {
	// Include and Exclude patterns match selector tokens ("h1", ".hero",
	// ".btn-*") or at-rule kinds ("@font-face").
	Include []string
	Exclude []string
	// Auto enables structural detection.
	Auto bool
	// AutoSelectors replaces DefaultAutoSelectors when not empty.
	AutoSelectors []string
}

// Partitioner is immutable after creation and safe for concurrent use.
type Partitioner struct {
	include []string
	exclude []string
	auto    bool
	autoSet map[string]bool
	log     *zap.Logger
}

// New creates partitioner. Malformed glob patterns are rejected.
func New(opts Options, log *zap.Logger) (*Partitioner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, p := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
	}
	selectors := opts.AutoSelectors
	if len(selectors) == 0 {
		selectors = DefaultAutoSelectors
	}
	autoSet := make(map[string]bool, len(selectors))
	for _, s := range selectors {
		autoSet[s] = true
	}
	return &Partitioner{
		include: opts.Include,
		exclude: opts.Exclude,
		auto:    opts.Auto,
		autoSet: autoSet,
		log:     log.Named("critical"),
	}, nil
}

// Result of partitioning.
type Result struct {
	Critical    []css.Rule
	NonCritical []css.Rule
	Report      Report
}

// CriticalCSS returns critical rules newline separated.
func (r Result) CriticalCSS() string {
	return css.Join(r.Critical)
}

// NonCriticalCSS returns remaining rules newline separated.
func (r Result) NonCriticalCSS() string {
	return css.Join(r.NonCritical)
}

// Report summarizes partition.
type Report struct {
	TotalRules       int
	CriticalRules    int
	NonCriticalRules int
	TotalBytes       int
	CriticalBytes    int
	NonCriticalBytes int
	CriticalPercent  float64
}

func (r Report) String() string {
	return fmt.Sprintf("critical %d of %d rules, %s of %s (%.1f%%), deferred %s",
		r.CriticalRules, r.TotalRules,
		humanize.Bytes(uint64(r.CriticalBytes)), humanize.Bytes(uint64(r.TotalBytes)),
		r.CriticalPercent, humanize.Bytes(uint64(r.NonCriticalBytes)))
}

// Partition splits rules. Document is optional, when present its leading
// elements extend auto detection.
func (p *Partitioner) Partition(rules []css.Rule, doc *Document) Result {
	var res Result
	for _, r := range rules {
		size := len(r.String())
		if p.IsCritical(r, doc) {
			res.Critical = append(res.Critical, r)
			res.Report.CriticalBytes += size
		} else {
			res.NonCritical = append(res.NonCritical, r)
			res.Report.NonCriticalBytes += size
		}
	}
	res.Report.TotalRules = len(rules)
	res.Report.CriticalRules = len(res.Critical)
	res.Report.NonCriticalRules = len(res.NonCritical)
	res.Report.TotalBytes = res.Report.CriticalBytes + res.Report.NonCriticalBytes
	if res.Report.TotalBytes > 0 {
		res.Report.CriticalPercent = float64(res.Report.CriticalBytes) * 100 / float64(res.Report.TotalBytes)
	}
	p.log.Debug("Partitioned", zap.Int("critical", res.Report.CriticalRules), zap.Int("deferred", res.Report.NonCriticalRules))
	return res
}

// IsCritical decides single rule: exclude beats include, include beats auto
// detection, anything else is not critical.
func (p *Partitioner) IsCritical(r css.Rule, doc *Document) bool {
	candidates := ruleCandidates(r)
	if matchAny(p.exclude, candidates) {
		return false
	}
	if matchAny(p.include, candidates) {
		return true
	}
	if !p.auto {
		return false
	}
	if r.Kind == css.KindStatement {
		// imports and charset have to precede everything else
		return true
	}
	for _, tok := range css.SelectorTokens(r.Selector) {
		if p.autoSet[tok] || doc.Has(tok) {
			return true
		}
	}
	return false
}

// ruleCandidates returns strings patterns are matched against: simple
// selector tokens, complete selectors of the list and "@kind" of involved
// at-rules.
func ruleCandidates(r css.Rule) []string {
	var res []string
	for _, name := range r.AtRuleNames() {
		res = append(res, "@"+name)
	}
	if r.Kind == css.KindStyle {
		res = append(res, css.SelectorTokens(r.Selector)...)
		res = append(res, css.SplitList(r.Selector)...)
	}
	return res
}

func matchAny(patterns, candidates []string) bool {
	for _, p := range patterns {
		atPattern := strings.HasPrefix(p, "@")
		for _, c := range candidates {
			if atPattern != strings.HasPrefix(c, "@") {
				continue
			}
			if p == c {
				return true
			}
			if ok, _ := path.Match(p, c); ok {
				return true
			}
		}
	}
	return false
}
