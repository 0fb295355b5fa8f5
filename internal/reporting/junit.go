package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/orchestration"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one benchmark of the matrix.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one matrix entry.
type JUnitTestCase struct {
	XMLName    xml.Name        `xml:"testcase"`
	Name       string          `xml:"name,attr"`
	Classname  string          `xml:"classname,attr"`
	Time       float64         `xml:"time,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	Failure    *JUnitFailure   `xml:"failure,omitempty"`
	Error      *JUnitError     `xml:"error,omitempty"`
	Skipped    *JUnitSkipped   `xml:"skipped,omitempty"`
}

// JUnitFailure is emitted for entries scoring below the threshold.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents an entry whose execution failed.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks an entry that was planned or not attempted.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitOptions tunes the conversion.
type JUnitOptions struct {
	// Name is written on the testsuites element.
	Name string
	// MinScore turns successful entries with a lower mean score into
	// failures. Zero disables the check.
	MinScore float64
	// Timestamp is stamped on every suite. Zero leaves it out.
	Timestamp time.Time
}

// ConvertSummary converts a pipeline summary to JUnit XML. Entries are
// grouped into one suite per benchmark, in matrix order.
func ConvertSummary(s *orchestration.Summary, opts JUnitOptions) *JUnitTestSuites {
	out := &JUnitTestSuites{Name: opts.Name}

	byBenchmark := map[string]*JUnitTestSuite{}
	var order []string
	for i := range s.Entries {
		e := &s.Entries[i]
		id := e.RunConfig.BenchmarkID
		suite, ok := byBenchmark[id]
		if !ok {
			suite = &JUnitTestSuite{Name: id}
			if !opts.Timestamp.IsZero() {
				suite.Timestamp = opts.Timestamp.UTC().Format(time.RFC3339)
			}
			byBenchmark[id] = suite
			order = append(order, id)
		}

		tc := convertEntry(e, opts.MinScore)
		suite.Tests++
		suite.Time += tc.Time
		switch {
		case tc.Error != nil:
			suite.Errors++
		case tc.Failure != nil:
			suite.Failures++
		case tc.Skipped != nil:
			suite.Skipped++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	for _, id := range order {
		suite := byBenchmark[id]
		suite.Properties = suiteProperties(suite, s.Entries)
		out.Tests += suite.Tests
		out.Failures += suite.Failures
		out.Errors += suite.Errors
		out.Skipped += suite.Skipped
		out.Time += suite.Time
		out.TestSuites = append(out.TestSuites, *suite)
	}
	return out
}

func convertEntry(e *orchestration.EntryResult, minScore float64) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      entryName(e),
		Classname: e.RunConfig.BenchmarkID,
		Time:      float64(e.DurationMs) / 1000.0,
		Properties: []JUnitProperty{
			{Name: "status", Value: string(e.Status)},
		},
	}
	if e.Fingerprint != "" {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "fingerprint", Value: e.Fingerprint})
	}
	if e.RunID != "" {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "run_id", Value: e.RunID})
	}

	switch e.Status {
	case orchestration.StatusFailed:
		msg := "execution failed"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		tc.Error = &JUnitError{Message: msg, Type: "ExecutionError"}
	case orchestration.StatusPlanned:
		tc.Skipped = &JUnitSkipped{Message: "dry run"}
	case orchestration.StatusNotAttempted:
		tc.Skipped = &JUnitSkipped{Message: "not attempted after an earlier failure"}
	}
	if scored(e.Status) {
		tc.Properties = append(tc.Properties, JUnitProperty{Name: "mean_score", Value: fmt.Sprintf("%.4f", e.MeanScore)})
		if minScore > 0 && e.MeanScore < minScore {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: score=%.2f below %.2f", tc.Name, e.MeanScore, minScore),
				Type:    "ScoreBelowThreshold",
				Body:    InterpretScore(e.MeanScore),
			}
		}
	}
	return tc
}

func entryName(e *orchestration.EntryResult) string {
	name := e.RunConfig.Provider + "/" + e.RunConfig.Model
	if len(e.RunConfig.Params) > 0 {
		name += " " + e.RunConfig.Params.String()
	}
	return name
}

func suiteProperties(suite *JUnitTestSuite, entries []orchestration.EntryResult) []JUnitProperty {
	props := []JUnitProperty{{Name: "benchmark", Value: suite.Name}}

	best := -1
	for i := range entries {
		e := &entries[i]
		if e.RunConfig.BenchmarkID != suite.Name || !scored(e.Status) {
			continue
		}
		if best < 0 || e.MeanScore > entries[best].MeanScore {
			best = i
		}
	}
	if best >= 0 {
		props = append(props,
			JUnitProperty{Name: "best", Value: entryName(&entries[best])},
			JUnitProperty{Name: "best_score", Value: fmt.Sprintf("%.4f", entries[best].MeanScore)},
		)
	}
	return props
}

func scored(status orchestration.EntryStatus) bool {
	switch status {
	case orchestration.StatusExecuted, orchestration.StatusRefreshed, orchestration.StatusCached:
		return true
	}
	return false
}

// WriteJUnitXML writes the summary as JUnit XML to path.
func WriteJUnitXML(s *orchestration.Summary, opts JUnitOptions, path string) error {
	suites := ConvertSummary(s, opts)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0o644)
}
