// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command testreport merges `go test -json` output with the annotations in
// test doc comments (TestPurpose, Scope, Security, Expected, Test Case ID)
// and writes JSON and Markdown reports.
//
//	go test -json ./... > test.json
//	go run ./cmd/testreport -input test.json -out-json report.json -out-md report.md
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const modulePath = "github.com/anand1357/timesheet-multitenant-backend"

// Annotation holds what a test's doc comment declares about it.
type Annotation struct {
	Purpose    string `json:"purpose,omitempty"`
	Scope      string `json:"scope,omitempty"`
	Security   string `json:"security,omitempty"`
	Expected   string `json:"expected,omitempty"`
	TestCaseID string `json:"test_case_id,omitempty"`
	Category   string `json:"category"`
	Type       string `json:"type"`
}

type testEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
	Output  string  `json:"Output"`
}

// Result is one test's merged outcome.
type Result struct {
	Name        string     `json:"name"`
	Package     string     `json:"package"`
	Status      string     `json:"status"`
	Elapsed     float64    `json:"elapsed_seconds"`
	Failure     string     `json:"failure_reason,omitempty"`
	Annotations Annotation `json:"annotations"`
}

// Summary is the whole report.
type Summary struct {
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []Result  `json:"results"`
}

func main() {
	input := flag.String("input", "", "go test -json output file")
	outJSON := flag.String("out-json", "", "JSON report path")
	outMD := flag.String("out-md", "", "Markdown report path")
	root := flag.String("root", ".", "module root to scan for annotations")
	title := flag.String("title", "Test Report", "report title")
	flag.Parse()

	if *input == "" || (*outJSON == "" && *outMD == "") {
		fmt.Fprintln(os.Stderr, "usage: testreport -input <file> [-out-json <file>] [-out-md <file>]")
		os.Exit(2)
	}

	annotations, err := scanAnnotations(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	results, err := mergeResults(f, annotations)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}
	summary := summarize(results, time.Now())

	if *outJSON != "" {
		data, _ := json.MarshalIndent(summary, "", "  ")
		if err := writeFile(*outJSON, data); err != nil {
			fmt.Fprintf(os.Stderr, "write json: %v\n", err)
			os.Exit(1)
		}
	}
	if *outMD != "" {
		var sb strings.Builder
		writeMarkdown(&sb, summary, *title)
		if err := writeFile(*outMD, []byte(sb.String())); err != nil {
			fmt.Fprintf(os.Stderr, "write markdown: %v\n", err)
			os.Exit(1)
		}
	}

	// Fail CI when any test failed.
	if summary.Failed > 0 {
		fmt.Printf("%d tests failed\n", summary.Failed)
		os.Exit(1)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// scanAnnotations parses every _test.go file under root and returns the
// annotations keyed by "<import path>.<TestName>".
func scanAnnotations(root string) (map[string]Annotation, error) {
	out := make(map[string]Annotation)
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, "_test.go") {
			return nil
		}

		node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		pkg := importPath(rel)

		for _, decl := range node.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, "Test") || fn.Name.Name == "TestMain" {
				continue
			}
			a := parseDoc(fn.Doc)
			a.Type = testType(pkg)
			a.Category = category(pkg)
			out[pkg+"."+fn.Name.Name] = a
		}
		return nil
	})
	return out, err
}

func importPath(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return modulePath
	}
	return modulePath + "/" + rel
}

func parseDoc(doc *ast.CommentGroup) Annotation {
	var a Annotation
	if doc == nil {
		return a
	}
	fields := []struct {
		prefix string
		dst    *string
	}{
		{"TestPurpose:", &a.Purpose},
		{"Scope:", &a.Scope},
		{"Security:", &a.Security},
		{"Expected:", &a.Expected},
		{"Test Case ID:", &a.TestCaseID},
	}
	for _, line := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(line.Text, "//"))
		for _, f := range fields {
			if strings.HasPrefix(text, f.prefix) {
				*f.dst = strings.TrimSpace(strings.TrimPrefix(text, f.prefix))
				break
			}
		}
	}
	return a
}

// testType is ST for tests/system, UT otherwise.
func testType(pkg string) string {
	rel := strings.TrimPrefix(pkg, modulePath+"/")
	if strings.HasPrefix(rel, "tests/") {
		if parts := strings.Split(rel, "/"); len(parts) > 1 {
			return strings.ToUpper(parts[1][:1]) + "T"
		}
	}
	return "UT"
}

var categories = []struct {
	fragment string
	name     string
}{
	{"/authz", "AuthZ"},
	{"/identity", "AuthN"},
	{"/requestctx", "Request Context"},
	{"/tenant", "Tenant"},
	{"/store", "Storage"},
	{"/timesheet", "Workflow"},
	{"/project", "Projects"},
	{"/user", "Users"},
	{"/dashboard", "Reporting"},
	{"/audit", "Audit"},
	{"/transport/http", "API"},
	{"/tests/system", "System"},
}

func category(pkg string) string {
	for _, c := range categories {
		if strings.Contains(pkg, c.fragment) {
			return c.name
		}
	}
	return "Other"
}

// mergeResults folds the event stream into one result per test. Annotated
// tests that never ran are reported as "not run"; subtests inherit their
// parent's annotation.
func mergeResults(r io.Reader, annotations map[string]Annotation) ([]Result, error) {
	states := make(map[string]*Result, len(annotations))
	for key, a := range annotations {
		i := strings.LastIndex(key, ".")
		states[key] = &Result{Name: key[i+1:], Package: key[:i], Status: "not run", Annotations: a}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var ev testEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil || ev.Test == "" {
			continue
		}
		key := ev.Package + "." + ev.Test
		res, ok := states[key]
		if !ok {
			a := Annotation{Type: testType(ev.Package), Category: category(ev.Package)}
			if parent, _, sub := strings.Cut(ev.Test, "/"); sub {
				if pa, found := annotations[ev.Package+"."+parent]; found {
					a = pa
				}
			}
			res = &Result{Name: ev.Test, Package: ev.Package, Annotations: a}
			states[key] = res
		}

		switch ev.Action {
		case "pass", "fail":
			res.Status = ev.Action
			res.Elapsed = ev.Elapsed
		case "skip":
			res.Status = "skip"
		case "output":
			if res.Status == "" || res.Status == "not run" || res.Status == "fail" {
				res.Failure += ev.Output
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(states))
	for _, s := range states {
		if s.Status != "fail" {
			s.Failure = ""
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func summarize(results []Result, now time.Time) Summary {
	s := Summary{GeneratedAt: now, Results: results}
	for _, r := range results {
		s.Total++
		switch r.Status {
		case "pass":
			s.Passed++
		case "fail":
			s.Failed++
		case "skip":
			s.Skipped++
		}
	}
	return s
}

func writeMarkdown(w io.Writer, s Summary, title string) {
	status := "PASSED"
	if s.Failed > 0 {
		status = "FAILED"
	}
	rate := 0.0
	if s.Total > 0 {
		rate = float64(s.Passed) / float64(s.Total) * 100
	}

	fmt.Fprintf(w, "# %s\n\n", title)
	fmt.Fprintf(w, "**Generated:** %s  \n", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "**Status:** %s\n\n", status)
	fmt.Fprintln(w, "| Total | Passed | Failed | Skipped | Pass Rate |")
	fmt.Fprintln(w, "|-------|--------|--------|---------|-----------|")
	fmt.Fprintf(w, "| %d | %d | %d | %d | %.1f%% |\n\n", s.Total, s.Passed, s.Failed, s.Skipped, rate)

	byCategory := make(map[string][]Result)
	for _, r := range s.Results {
		byCategory[r.Annotations.Category] = append(byCategory[r.Annotations.Category], r)
	}
	order := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		order = append(order, c.name)
	}
	order = append(order, "Other")

	for _, cat := range order {
		tests := byCategory[cat]
		if len(tests) == 0 {
			continue
		}
		fmt.Fprintf(w, "## %s\n\n", cat)
		fmt.Fprintln(w, "| ID | Test | Status | Purpose | Security |")
		fmt.Fprintln(w, "|----|------|--------|---------|----------|")
		for _, t := range tests {
			security := t.Annotations.Security
			if security != "" {
				security = "**" + security + "**"
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				t.Annotations.TestCaseID, t.Name, t.Status, t.Annotations.Purpose, security)
		}
		fmt.Fprintln(w)
	}

	if s.Failed == 0 {
		return
	}
	fmt.Fprint(w, "## Failures\n\n")
	for _, t := range s.Results {
		if t.Status == "fail" {
			fmt.Fprintf(w, "### %s (%s)\n\n```\n%s```\n\n", t.Name, t.Package, t.Failure)
		}
	}
}
