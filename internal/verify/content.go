package verify

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"statescan/internal/model"
	"statescan/internal/util"
)

const checkerMaxBodyBytes = 1 << 20

// Findings are the two independent content signals. Either alone downgrades
// trust to suspicious.
type Findings struct {
	Repealed     bool
	Hallucinated bool
}

// ContentChecker inspects a statute's cited content. A real deployment
// re-fetches the source; demo deployments use a random stand-in. Both
// honor the same contract.
type ContentChecker interface {
	Check(ctx context.Context, statute *model.Statute) (Findings, error)
}

// SimulatedChecker is the demo stand-in: a seeded random classifier with a
// small artificial delay.
type SimulatedChecker struct {
	RepealedRate     float64
	HallucinatedRate float64
	Delay            time.Duration

	base int64
	seq  atomic.Int64
}

// NewSimulatedChecker creates the stand-in checker. seed 0 means
// time-seeded.
func NewSimulatedChecker(repealedRate, hallucinatedRate float64, delay time.Duration, seed int64) *SimulatedChecker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedChecker{
		RepealedRate:     repealedRate,
		HallucinatedRate: hallucinatedRate,
		Delay:            delay,
		base:             seed,
	}
}

// Check draws both findings independently.
func (c *SimulatedChecker) Check(ctx context.Context, statute *model.Statute) (Findings, error) {
	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Findings{}, ctx.Err()
		case <-timer.C:
		}
	}

	rng := rand.New(rand.NewSource(c.base + c.seq.Add(1)))
	return Findings{
		Repealed:     rng.Float64() < c.RepealedRate,
		Hallucinated: rng.Float64() < c.HallucinatedRate,
	}, nil
}

// repealMarkers are phrases on a statute page that indicate the provision
// is no longer in force.
var repealMarkers = []string{
	"repealed",
	"superseded",
	"no longer in effect",
	"held unconstitutional",
}

// LiveChecker re-fetches the statute's source page and compares it against
// the citation. It consults robots.txt before hitting the host.
type LiveChecker struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	userAgent  string
}

// NewLiveChecker creates a checker that performs real re-fetches.
func NewLiveChecker(timeout time.Duration, userAgent string, httpCfg model.HTTPConfig) *LiveChecker {
	return &LiveChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		robots:    util.NewRobotsChecker(userAgent, timeout),
		userAgent: userAgent,
	}
}

// Check fetches the cited page. Hallucinated means the citation's section
// identifiers do not appear in the page text; repealed means the page
// carries a repeal marker.
func (c *LiveChecker) Check(ctx context.Context, statute *model.Statute) (Findings, error) {
	if statute.SourceURL == "" {
		return Findings{Hallucinated: true}, nil
	}

	if !c.robots.IsAllowed(ctx, statute.SourceURL) {
		return Findings{}, fmt.Errorf("robots.txt disallows fetching %s", statute.SourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statute.SourceURL, nil)
	if err != nil {
		return Findings{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Findings{}, fmt.Errorf("fetch source: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		// A dead source link is the strongest hallucination signal we have.
		return Findings{Hallucinated: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Findings{}, fmt.Errorf("unexpected status %d from source", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, checkerMaxBodyBytes))
	if err != nil {
		return Findings{}, fmt.Errorf("read source: %w", err)
	}

	text, err := visibleText(string(body))
	if err != nil {
		return Findings{}, fmt.Errorf("parse source: %w", err)
	}
	lower := strings.ToLower(text)

	findings := Findings{
		Hallucinated: !citationAppears(lower, statute.Citation),
	}
	for _, marker := range repealMarkers {
		if strings.Contains(lower, marker) {
			findings.Repealed = true
			break
		}
	}
	return findings, nil
}

// citationAppears checks that the citation's section identifiers show up in
// the page text. Matching the full citation string verbatim is too strict;
// states format their own citations differently than legal style manuals.
func citationAppears(lowerText, citation string) bool {
	fields := strings.Fields(strings.ToLower(citation))
	matched := 0
	significant := 0
	for _, f := range fields {
		f = strings.Trim(f, "§().,;")
		if len(f) < 2 {
			continue
		}
		significant++
		if strings.Contains(lowerText, f) {
			matched++
		}
	}
	if significant == 0 {
		return false
	}
	return matched*2 >= significant // at least half the identifiers present
}

// visibleText extracts the text nodes from an HTML document, skipping
// script and style subtrees.
func visibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String(), nil
}
