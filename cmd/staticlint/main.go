// The application bundles the project's static analysis into a single
// multichecker binary: selected analyzers from the Go toolchain, the
// ineffassign and nilerr third-party analyzers, a configurable staticcheck
// set and the project-specific noosexit analyzer.
//
// The staticcheck selection is read from config.json next to the binary;
// when the file is absent every SA-class analyzer is enabled.
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"

	"github.com/patric-chuzhbe/strkeeper/cmd/staticlint/noosexit"
)

// configFileName is looked up next to the binary.
const configFileName = `config.json`

type configData struct {
	Staticcheck []string
}

func main() {
	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
	}

	multichecker.Main(append(checks, staticcheckAnalyzers()...)...)
}

func staticcheckAnalyzers() []*analysis.Analyzer {
	enabled := loadEnabledSet()

	var result []*analysis.Analyzer
	for _, v := range staticcheck.Analyzers {
		if enabled == nil {
			if strings.HasPrefix(v.Analyzer.Name, "SA") {
				result = append(result, v.Analyzer)
			}
			continue
		}
		if enabled[v.Analyzer.Name] {
			result = append(result, v.Analyzer)
		}
	}

	return result
}

// loadEnabledSet returns nil when there is no config file, which means
// "use the default SA set".
func loadEnabledSet() map[string]bool {
	appfile, err := os.Executable()
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), configFileName))
	if err != nil {
		return nil
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	enabled := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}

	return enabled
}
