// Package cli implements the httpfacade command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kroma-labs/httpfacade/httpclient"
	"github.com/kroma-labs/httpfacade/internal/config"
)

var version = "0.1.0"

// errRequestsFailed is returned when at least one request failed. Each
// failure has already been reported.
var errRequestsFailed = errors.New("one or more requests failed")

// options holds the global flags.
type options struct {
	configPath     string
	headers        []string
	retry          int
	connectTimeout time.Duration
	readTimeout    time.Duration
	proxy          string
	httpsProxy     string
	insecure       bool
	charset        string
	debug          bool
	selectPath     string
	parallel       int
	noColor        bool

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command with the process arguments and returns the exit
// code.
func Execute() int {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errRequestsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:     "httpfacade",
		Short:   "Send one-shot HTTP requests",
		Version: version,
		Long: `httpfacade sends GET, DELETE, POST and PUT requests with query, form,
JSON, XML, text or multipart bodies. Failure statuses 400, 403, 404, 405,
415, 500 and 503 print a fixed diagnostic instead of the response body.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "YAML defaults file")
	pf.StringArrayVarP(&o.headers, "header", "H", nil, `request header "Name: value" (repeatable)`)
	pf.IntVar(&o.retry, "retry", httpclient.DefaultRetryTimes, "retries after a failed send")
	pf.DurationVar(&o.connectTimeout, "connect-timeout", httpclient.DefaultConnectTimeout, "connect timeout")
	pf.DurationVar(&o.readTimeout, "read-timeout", httpclient.DefaultReadTimeout, "read timeout")
	pf.StringVar(&o.proxy, "proxy", "", "http proxy host:port")
	pf.StringVar(&o.httpsProxy, "https-proxy", "", "https proxy host:port")
	pf.BoolVarP(&o.insecure, "insecure", "k", false, "skip TLS certificate verification")
	pf.StringVar(&o.charset, "charset", httpclient.DefaultCharset, "response charset")
	pf.BoolVar(&o.debug, "debug", false, "log requests and responses")
	pf.StringVar(&o.selectPath, "select", "", "print only this gjson path of the response")
	pf.IntVarP(&o.parallel, "parallel", "p", 4, "requests in flight when several URLs are given")
	pf.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newURICmd(o, "get", "Send GET requests", (*httpclient.Client).Get),
		newURICmd(o, "delete", "Send DELETE requests", (*httpclient.Client).Delete),
		newFormCmd(o, "post", "Send a POST request", (*httpclient.Client).Post),
		newFormCmd(o, "put", "Send a PUT request", (*httpclient.Client).Put),
	)

	return root
}

// loadConfig reads the defaults file and applies the flags that were set
// on cmd.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("retry") {
		cfg.Request.RetryTimes = o.retry
	}
	if flags.Changed("connect-timeout") {
		cfg.Request.ConnectTimeout = o.connectTimeout
	}
	if flags.Changed("read-timeout") {
		cfg.Request.ReadTimeout = o.readTimeout
	}
	if flags.Changed("charset") {
		cfg.Request.Charset = o.charset
	}
	if flags.Changed("insecure") {
		cfg.Request.InsecureSkipVerify = o.insecure
	}

	return cfg, nil
}

func (o *options) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        o.stderr,
		NoColor:    o.noColor,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}

// newClient builds the client for one invocation. The close function must
// be called once the requests are done.
func (o *options) newClient(cmd *cobra.Command) (*httpclient.Client, *config.Config, func() error, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	opts, closeFn := cfg.ClientOptions(o.logger())
	opts = append(opts, httpclient.WithDebug(o.debug))

	return httpclient.New(opts...), cfg, closeFn, nil
}
