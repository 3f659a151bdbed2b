// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package domain loads and validates the keyword ruleset that the filtering
// pipeline consults. A ruleset is loaded once per run, validated eagerly, and
// treated as read-only afterwards; a missing section is a configuration
// error surfaced at load time, never a per-paper outcome.
// See docs/ARCHITECTURE.md § Domain Rulesets.
package domain

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// TermGroup is a named set of terms. For exclusion signals the name
// identifies a different attack or topic entirely; for other-topic groups it
// identifies a competing primary focus.
type TermGroup struct {
	Name  string
	Terms []string
}

// Rules holds the numeric thresholds of a ruleset.
type Rules struct {
	// MinTermMentions is the minimum combined count of core keywords and
	// required abstract terms for a paper to pass the relevance filter
	// without a high-quality keyword.
	MinTermMentions int `yaml:"min_term_mentions"`

	// TopicDominanceThreshold is the absolute per-topic count above which
	// a competing topic is dominant regardless of the target count.
	TopicDominanceThreshold int `yaml:"topic_dominance_threshold"`

	// DominanceRatio is the competing/target count ratio above which a
	// competing topic is dominant.
	DominanceRatio float64 `yaml:"dominance_ratio"`

	// ContextWindow is the character window around an exclusion match
	// inspected for rescuing domain keywords.
	ContextWindow int `yaml:"context_window"`

	// FirstParagraphLength is the character cutoff treated as the
	// abstract's opening paragraph.
	FirstParagraphLength int `yaml:"first_paragraph_length"`
}

// Ruleset is a validated, immutable domain configuration. Every slice field
// is required and non-empty after Load.
type Ruleset struct {
	// Name identifies the target research topic (e.g. "model extraction").
	Name string

	// HighQualityKeywords are unambiguous target-topic signals. One
	// occurrence accepts a paper outright in the relevance filter.
	HighQualityKeywords []string

	// CoreKeywords are common target-topic terms.
	CoreKeywords []string

	// DefenseKeywords describe defenses against the target attack.
	DefenseKeywords []string

	// ProblematicKeywords are known false-positive triggers.
	ProblematicKeywords []string

	// RequiredAbstractTerms must appear in an abstract for the paper to
	// count as discussing the target topic.
	RequiredAbstractTerms []string

	// ExclusionSignals name term groups indicating a different topic
	// entirely, in deterministic (name-sorted) order.
	ExclusionSignals []TermGroup

	// OtherTopics name term groups indicating a different primary focus,
	// in deterministic (name-sorted) order.
	OtherTopics []TermGroup

	Rules Rules
}

// rulesetFile is the on-disk YAML shape.
type rulesetFile struct {
	Name                  string              `yaml:"name"`
	HighQualityKeywords   []string            `yaml:"high_quality_keywords"`
	CoreKeywords          []string            `yaml:"core_keywords"`
	DefenseKeywords       []string            `yaml:"defense_keywords"`
	ProblematicKeywords   []string            `yaml:"problematic_keywords"`
	RequiredAbstractTerms []string            `yaml:"required_abstract_terms"`
	ExclusionSignals      map[string][]string `yaml:"exclusion_signals"`
	OtherTopics           map[string][]string `yaml:"other_topics"`
	Rules                 Rules               `yaml:"rules"`
}

// Load reads and validates a ruleset YAML file. It returns an error listing
// every missing or malformed section; no section is defaulted.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates a ruleset from raw YAML.
func Parse(data []byte) (*Ruleset, error) {
	var rf rulesetFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}

	rs := &Ruleset{
		Name:                  strings.TrimSpace(rf.Name),
		HighQualityKeywords:   lowerAll(rf.HighQualityKeywords),
		CoreKeywords:          lowerAll(rf.CoreKeywords),
		DefenseKeywords:       lowerAll(rf.DefenseKeywords),
		ProblematicKeywords:   lowerAll(rf.ProblematicKeywords),
		RequiredAbstractTerms: lowerAll(rf.RequiredAbstractTerms),
		ExclusionSignals:      sortedGroups(rf.ExclusionSignals),
		OtherTopics:           sortedGroups(rf.OtherTopics),
		Rules:                 rf.Rules,
	}

	if err := rs.validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func (rs *Ruleset) validate() error {
	var missing []string

	if rs.Name == "" {
		missing = append(missing, "name")
	}
	if len(rs.HighQualityKeywords) == 0 {
		missing = append(missing, "high_quality_keywords")
	}
	if len(rs.CoreKeywords) == 0 {
		missing = append(missing, "core_keywords")
	}
	if len(rs.DefenseKeywords) == 0 {
		missing = append(missing, "defense_keywords")
	}
	if len(rs.ProblematicKeywords) == 0 {
		missing = append(missing, "problematic_keywords")
	}
	if len(rs.RequiredAbstractTerms) == 0 {
		missing = append(missing, "required_abstract_terms")
	}
	if len(rs.ExclusionSignals) == 0 {
		missing = append(missing, "exclusion_signals")
	}
	if len(rs.OtherTopics) == 0 {
		missing = append(missing, "other_topics")
	}
	if rs.Rules.MinTermMentions <= 0 {
		missing = append(missing, "rules.min_term_mentions")
	}
	if rs.Rules.TopicDominanceThreshold <= 0 {
		missing = append(missing, "rules.topic_dominance_threshold")
	}
	if rs.Rules.DominanceRatio <= 0 {
		missing = append(missing, "rules.dominance_ratio")
	}
	if rs.Rules.ContextWindow <= 0 {
		missing = append(missing, "rules.context_window")
	}
	if rs.Rules.FirstParagraphLength <= 0 {
		missing = append(missing, "rules.first_paragraph_length")
	}

	if len(missing) > 0 {
		return fmt.Errorf("ruleset missing required sections: %s", strings.Join(missing, ", "))
	}

	for _, g := range rs.ExclusionSignals {
		if len(g.Terms) == 0 {
			return fmt.Errorf("exclusion signal group %q has no terms", g.Name)
		}
	}
	for _, g := range rs.OtherTopics {
		if len(g.Terms) == 0 {
			return fmt.Errorf("other-topic group %q has no terms", g.Name)
		}
	}
	return nil
}

// DomainTerms returns the terms that signal the target topic: core keywords
// plus high-quality keywords.
func (rs *Ruleset) DomainTerms() []string {
	terms := make([]string, 0, len(rs.CoreKeywords)+len(rs.HighQualityKeywords))
	terms = append(terms, rs.CoreKeywords...)
	terms = append(terms, rs.HighQualityKeywords...)
	return terms
}

// DisplayName returns the ruleset name with underscores spelled out, for
// human-readable verdict reasons.
func (rs *Ruleset) DisplayName() string {
	return strings.ReplaceAll(rs.Name, "_", " ")
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// sortedGroups converts a YAML mapping into a name-sorted slice so group
// iteration order, and therefore verdict reasons, is deterministic.
func sortedGroups(m map[string][]string) []TermGroup {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]TermGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, TermGroup{Name: name, Terms: lowerAll(m[name])})
	}
	return groups
}
