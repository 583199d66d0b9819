// Package wizard implements the interactive form behind `evaldash init`.
package wizard

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/evaldash/internal/projectconfig"
	"golang.org/x/term"
)

// Answers holds the fields collected by the init wizard, as typed.
type Answers struct {
	BaseURL       string
	Interval      string
	IncludeCurves bool
	Port          string
	NoBrowser     bool
	Schema        string
}

// AnswersFrom pre-populates the wizard from an existing configuration.
func AnswersFrom(cfg *projectconfig.ProjectConfig) Answers {
	return Answers{
		BaseURL:       cfg.API.BaseURL,
		Interval:      cfg.Poll.Interval.String(),
		IncludeCurves: cfg.IncludeCurves(),
		Port:          strconv.Itoa(cfg.Server.Port),
		NoBrowser:     cfg.NoBrowser(),
		Schema:        cfg.Predict.Schema,
	}
}

// Run shows the init form on in/out, starting from initial.
func Run(in io.Reader, out io.Writer, initial Answers) (*Answers, error) {
	a := initial
	openBrowser := !a.NoBrowser

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics API base URL").
				Description("Where the evaluation backend is listening").
				Placeholder(projectconfig.DefaultBaseURL).
				Value(&a.BaseURL).
				Validate(ValidateBaseURL),
			huh.NewInput().
				Title("Poll interval").
				Description("How often the dashboard refreshes, e.g. 5s or 1m").
				Placeholder(projectconfig.DefaultPollInterval.String()).
				Value(&a.Interval).
				Validate(ValidateInterval),
			huh.NewConfirm().
				Title("Fetch ROC and PR curves?").
				Value(&a.IncludeCurves),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard port").
				Placeholder(strconv.Itoa(projectconfig.DefaultServerPort)).
				Value(&a.Port).
				Validate(ValidatePort),
			huh.NewConfirm().
				Title("Open a browser when serving?").
				Affirmative("Yes").
				Negative("No").
				Value(&openBrowser),
			huh.NewInput().
				Title("Predict payload schema").
				Description("Optional JSON Schema file for predict payloads").
				Value(&a.Schema),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}
	a.NoBrowser = !openBrowser
	return &a, nil
}

// Config applies a onto a copy of base.
func (a Answers) Config(base *projectconfig.ProjectConfig) (*projectconfig.ProjectConfig, error) {
	cfg := *base
	cfg.Path = ""

	if err := ValidateBaseURL(a.BaseURL); err != nil {
		return nil, err
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")

	if strings.TrimSpace(a.Interval) != "" {
		if err := ValidateInterval(a.Interval); err != nil {
			return nil, err
		}
		d, _ := time.ParseDuration(strings.TrimSpace(a.Interval))
		cfg.Poll.Interval = d
	}
	include := a.IncludeCurves
	cfg.Poll.IncludeCurves = &include

	if strings.TrimSpace(a.Port) != "" {
		if err := ValidatePort(a.Port); err != nil {
			return nil, err
		}
		cfg.Server.Port, _ = strconv.Atoi(strings.TrimSpace(a.Port))
	}
	noBrowser := a.NoBrowser
	cfg.Server.NoBrowser = &noBrowser
	cfg.Predict.Schema = strings.TrimSpace(a.Schema)
	return &cfg, nil
}

// ValidateBaseURL requires an absolute http(s) URL.
func ValidateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	return nil
}

// ValidateInterval accepts an empty value (keep the default) or a positive
// Go duration.
func ValidateInterval(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid interval %q: use a duration such as 5s or 1m", s)
	}
	if d <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// ValidatePort accepts an empty value (keep the default) or 1-65535.
func ValidatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
