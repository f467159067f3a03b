// Command validate runs offline preflight checks for the NOAA bots: it loads
// the configuration, confirms credentials, parses map assets and checks that
// the target date and output path are usable. It makes no network calls.
//
// Usage:
//
//	go run ./cmd/validate [-date 2024-12-31]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kevinhicks7/noaa-api/internal/adapter/bluesky"
	"github.com/kevinhicks7/noaa-api/internal/adapter/cdo"
	"github.com/kevinhicks7/noaa-api/internal/adapter/render"
	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	date := flag.String("date", "", "target date to check as YYYY-MM-DD (default: TARGET_DATE, then yesterday)")
	flag.Parse()

	if code := run(os.Stdout, *date); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, dateFlag string) int {
	fmt.Fprintln(w, "=== NOAA Bot Preflight ===")
	fmt.Fprintln(w)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(w, "FATAL: configuration is invalid:")
		for _, e := range unjoin(err) {
			fmt.Fprintf(w, "  - %v\n", e)
		}
		return 1
	}

	phases := []*phase{
		validateCredentials(cfg),
		validateTargetDate(cfg, dateFlag),
		validateMapAssets(cfg),
		validateOutput(cfg),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(w, "  Note: %s\n", n)
		}
	}

	if !allPassed {
		fmt.Fprintln(w, "\nPreflight FAILED.")
		return 1
	}
	fmt.Fprintln(w, "\nPreflight passed.")
	return 0
}

func validateCredentials(cfg *config.Config) *phase {
	p := &phase{name: "Credentials"}
	if cfg.NOAAToken == "" {
		p.errorf("%v", &domain.MissingCredentialError{Name: cdo.TokenVar})
	}
	switch {
	case cfg.BskyPassword != "":
	case cfg.DryRun:
		p.notef("%s is not set; DRY_RUN is on so nothing will be posted", bluesky.PasswordVar)
	default:
		p.errorf("%v", &domain.MissingCredentialError{Name: bluesky.PasswordVar})
	}
	return p
}

func validateTargetDate(cfg *config.Config, dateFlag string) *phase {
	p := &phase{name: "Target date"}
	date := cfg.TargetDate
	if dateFlag != "" {
		d, err := domain.ParseDate(dateFlag)
		if err != nil {
			p.errorf("%v", err)
			return p
		}
		date = d
	}
	if date.IsZero() {
		date = domain.Yesterday()
	}

	if _, err := domain.ClimatologyIndex(date); err != nil {
		p.errorf("%s: %v", domain.FormatDate(date), err)
		return p
	}
	p.notef("target %s, daily dataset %s", domain.FormatDate(date), fmt.Sprintf(cfg.CPCDailyURLTemplate, date.Year()))
	return p
}

func validateMapAssets(cfg *config.Config) *phase {
	p := &phase{name: "Map assets"}

	cities, err := render.LoadCities(cfg.MapCitiesFile)
	if err != nil {
		p.errorf("%v", err)
	} else {
		vp := render.MapViewport(cfg.MapWidth, cfg.MapHeight)
		outside := 0
		for _, c := range cities {
			if !vp.Visible(c.Lon, c.Lat) {
				outside++
			}
		}
		p.notef("%d cities (%d outside the map window)", len(cities), outside)
	}

	overlays := []struct{ name, path string }{
		{"lakes", cfg.MapLakesGeoJSON},
		{"coastlines", cfg.MapCoastGeoJSON},
		{"borders", cfg.MapBorderGeoJSON},
		{"states", cfg.MapStatesGeoJSON},
	}
	for _, o := range overlays {
		if o.path == "" {
			continue
		}
		layer, err := render.LoadLayer(o.name, o.path, render.ContinentalUS)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if len(layer.Paths) == 0 {
			p.errorf("%s overlay %s has no paths inside the map window", o.name, o.path)
			continue
		}
		p.notef("%s overlay: %d paths", o.name, len(layer.Paths))
	}
	return p
}

func validateOutput(cfg *config.Config) *phase {
	p := &phase{name: "Map output"}
	dir := filepath.Dir(cfg.MapOutput)
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		p.errorf("cannot write to %s: %v", dir, err)
		return p
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return p
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
