package extractor

import (
	"regexp"
	"strings"
	"sync"

	"newslook/internal/domain/entity"
)

// AdFilterEvent is emitted for every filter match, hard or advisory, so
// the monitor can record it and a human can later audit false positives.
type AdFilterEvent struct {
	Source  entity.Source
	URL     string
	Pattern string
	Hard    bool
}

// AdFilterSink receives AdFilterEvent records. nil sinks discard events.
type AdFilterSink interface {
	RecordAdFilterMatch(AdFilterEvent)
}

// adFilterEngine compiles a SourceConfig's AdFilters once and evaluates
// candidate URLs/content against them.
type adFilterEngine struct {
	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

func newAdFilterEngine() *adFilterEngine {
	return &adFilterEngine{compiled: make(map[string]*regexp.Regexp)}
}

func (e *adFilterEngine) pattern(expr string) *regexp.Regexp {
	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.compiled[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	e.compiled[expr] = re
	return re
}

// evaluate checks url and content against every configured filter.
// Matches are always reported through sink; evaluate returns true only
// when a Hard filter matched, meaning the caller must Skip(ad).
func (e *adFilterEngine) evaluate(src entity.Source, url, content string, filters []entity.AdFilter, sink AdFilterSink) bool {
	hardHit := false
	for _, f := range filters {
		matched := false
		var patternText string

		if f.URLPattern != "" {
			patternText = f.URLPattern
			if re := e.pattern(f.URLPattern); re != nil && re.MatchString(url) {
				matched = true
			}
		}
		if !matched && f.ContentKeyword != "" {
			patternText = f.ContentKeyword
			if strings.Contains(content, f.ContentKeyword) {
				matched = true
			}
		}

		if !matched {
			continue
		}
		if sink != nil {
			sink.RecordAdFilterMatch(AdFilterEvent{Source: src, URL: url, Pattern: patternText, Hard: f.Hard})
		}
		if f.Hard {
			hardHit = true
		}
	}
	return hardHit
}
