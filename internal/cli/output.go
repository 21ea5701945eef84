package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/kroma-labs/httpfacade/httpclient"
)

// outcome is the result of one request.
type outcome struct {
	url    string
	result httpclient.ResponseResult
	err    error
}

// run sends one request per URL, at most o.parallel at a time, and prints
// the outcomes in argument order. Every request gets its own handle.
func (o *options) run(ctx context.Context, urls []string, build func(url string) (doer, error)) error {
	outcomes := make([]outcome, len(urls))

	var g errgroup.Group
	limit := o.parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, url := range urls {
		g.Go(func() error {
			outcomes[i].url = url

			r, err := build(url)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].result, outcomes[i].err = r.Do(ctx)
			return nil
		})
	}
	_ = g.Wait()

	p := newPrinter(o.stdout, o.stderr, o.noColor)
	failed := false
	for _, oc := range outcomes {
		if len(urls) > 1 {
			p.heading(oc.url)
		}
		if oc.err != nil {
			failed = true
			p.failure(oc.err)
			continue
		}
		p.result(oc.result, o.selectPath)
	}

	if failed {
		return errRequestsFailed
	}
	return nil
}

// printer writes outcomes. Status lines and errors go to errOut so that out
// only carries response content.
type printer struct {
	out, errOut io.Writer
	ok          *color.Color
	warn        *color.Color
	bad         *color.Color
	dim         *color.Color
}

func newPrinter(out, errOut io.Writer, noColor bool) *printer {
	p := &printer{
		out:    out,
		errOut: errOut,
		ok:     color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
		dim:    color.New(color.FgCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) heading(url string) {
	p.dim.Fprintf(p.errOut, "==> %s\n", url)
}

func (p *printer) failure(err error) {
	p.bad.Fprintf(p.errOut, "error: %v\n", err)
}

func (p *printer) result(r httpclient.ResponseResult, selectPath string) {
	status := p.warn
	switch {
	case r.StatusCode == http.StatusOK:
		status = p.ok
	case r.Diagnostic:
		status = p.bad
	}
	status.Fprintf(p.errOut, "HTTP %d\n", r.StatusCode)

	content := r.Content
	if selectPath != "" && !r.Diagnostic {
		content = r.Field(selectPath).String()
	}
	fmt.Fprintln(p.out, content)
}
