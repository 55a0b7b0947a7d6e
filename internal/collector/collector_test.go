package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/model"
)

func TestWidenQuery(t *testing.T) {
	tests := []struct {
		topic      string
		qualifiers []string
		want       string
	}{
		{"Acme", []string{"controversy", "scandal"}, "Acme (controversy OR scandal)"},
		{"  Acme Corp ", []string{"scandal"}, "Acme Corp (scandal)"},
		{"Acme", nil, "Acme"},
		{"Acme", []string{" ", ""}, "Acme"},
	}

	for _, tt := range tests {
		if got := WidenQuery(tt.topic, tt.qualifiers); got != tt.want {
			t.Errorf("WidenQuery(%q, %v) = %q, want %q", tt.topic, tt.qualifiers, got, tt.want)
		}
	}
}

func TestPublisherFromTitle(t *testing.T) {
	tests := map[string]string{
		"Acme faces lawsuit - Reuters":          "Reuters",
		"Acme - the saga continues - The Times": "The Times",
		"No publisher here":                     "",
		" - Orphan":                             "",
	}
	for title, want := range tests {
		if got := publisherFromTitle(title); got != want {
			t.Errorf("publisherFromTitle(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	status := networkError("https://x", &fetch.StatusError{URL: "https://x", StatusCode: 503})
	if !IsNetwork(status) {
		t.Error("status failure should be a network error")
	}
	var ne *NetworkError
	if !errors.As(status, &ne) || ne.StatusCode != 503 {
		t.Errorf("status code not kept: %v", status)
	}

	if !IsParse(parseError("https://x", errors.New("bad xml"))) {
		t.Error("expected parse error")
	}
	if IsParse(status) {
		t.Error("network error misclassified as parse")
	}

	limited := fmt.Errorf("mirror: %w", ErrRateLimited)
	if !IsRateLimited(limited) {
		t.Error("expected rate limited")
	}
	if IsNetwork(limited) {
		t.Error("rate limit misclassified as network")
	}
	if networkError("x", nil) != nil {
		t.Error("nil error should stay nil")
	}
}

func TestOutcome_Availability(t *testing.T) {
	out := Outcome{
		Source:   model.SourceTwitter,
		Degraded: true,
		Cause:    ErrRateLimited,
		Attempts: 3,
	}
	a := out.Availability()
	if a.Count != 0 || !a.Degraded || a.Cause != "rate limited" || a.Attempts != 3 {
		t.Errorf("unexpected availability %+v", a)
	}
	if a.CauseClass != ClassRateLimited {
		t.Errorf("CauseClass = %q, want %q", a.CauseClass, ClassRateLimited)
	}

	if ok := (Outcome{Source: model.SourceReddit}).Availability(); ok.Cause != "" || ok.CauseClass != "" {
		t.Errorf("healthy outcome carries a cause: %+v", ok)
	}
}

func TestClassify(t *testing.T) {
	status := networkError("https://x", &fetch.StatusError{URL: "https://x", StatusCode: 502})
	parse := parseError("https://x", errors.New("bad json"))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"rate limited", fmt.Errorf("mirror: %w", ErrRateLimited), ClassRateLimited},
		{"network", status, ClassNetwork},
		{"parse", parse, ClassParse},
		{"no results", fmt.Errorf("mirror: %w", ErrNoResults), ClassNoResults},
		{"other", errors.New("boom"), ClassOther},
		{"joined uses last", errors.Join(parse, status), ClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

type stubCollector struct{ source model.SourceType }

func (s stubCollector) Source() model.SourceType { return s.source }

func (s stubCollector) Collect(context.Context, string) Outcome { return Outcome{Source: s.source} }

func TestRegistry_RejectsUnknownSource(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubCollector{source: "facebook"}); err == nil {
		t.Error("expected error for unknown source type")
	}
	if _, ok := r.Get("facebook"); ok {
		t.Error("unknown collector was registered")
	}

	if err := r.Register(stubCollector{source: model.SourceReddit}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := r.Get(model.SourceReddit); !ok {
		t.Error("reddit collector missing")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := Default(model.DefaultConfig(), testFetcher(), nil, nil)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, st := range model.AllSourceTypes {
		c, ok := r.Get(st)
		if !ok {
			t.Errorf("no collector for %s", st)
			continue
		}
		if c.Source() != st {
			t.Errorf("collector for %s reports %s", st, c.Source())
		}
	}
}
