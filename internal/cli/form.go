package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kroma-labs/httpfacade/httpclient"
)

// bodyFlags holds the body flags of post and put.
type bodyFlags struct {
	parts       []part
	json        string
	xml         string
	text        string
	contentType string
	multipart   bool
}

// part is one --form or --file value.
type part struct {
	name  string
	value string
	file  bool
}

// partFlag appends to a list shared by --form and --file, so parts keep
// the order they were given in on the command line.
type partFlag struct {
	parts *[]part
	file  bool
}

func (f partFlag) String() string { return "" }

func (f partFlag) Set(s string) error {
	name, value, err := parsePair(s)
	if err != nil {
		return err
	}
	*f.parts = append(*f.parts, part{name: name, value: value, file: f.file})
	return nil
}

func (f partFlag) Type() string {
	if f.file {
		return "name=path"
	}
	return "name=value"
}

func (b *bodyFlags) hasFiles() bool {
	for _, p := range b.parts {
		if p.file {
			return true
		}
	}
	return false
}

// raw returns how many raw body flags are set.
func (b *bodyFlags) raw() int {
	n := 0
	for _, s := range []string{b.json, b.xml, b.text} {
		if s != "" {
			n++
		}
	}
	return n
}

func (b *bodyFlags) validate() error {
	if b.raw() > 1 {
		return errors.New("--json, --xml and --text are mutually exclusive")
	}
	if b.raw() > 0 && (b.multipart || b.hasFiles()) {
		return errors.New("a raw body cannot be sent as multipart")
	}
	return nil
}

// newFormCmd builds the post and put commands. --file or --multipart sends
// a multipart form; otherwise the body is a URL-encoded form or the raw
// document given with --json, --xml or --text.
func newFormCmd(
	o *options,
	use, short string,
	factory func(*httpclient.Client, string) *httpclient.FormRequest,
) *cobra.Command {
	b := &bodyFlags{}

	cmd := &cobra.Command{
		Use:   use + " URL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, urls []string) error {
			if err := b.validate(); err != nil {
				return err
			}

			client, cfg, closeFn, err := o.newClient(cmd)
			if err != nil {
				return err
			}
			defer closeFn() //nolint:errcheck // best effort on exit

			return o.run(cmd.Context(), urls, func(url string) (doer, error) {
				if b.multipart || b.hasFiles() {
					return configure(b.multipartRequest(factory(client, url).MultipartForm()), o, cfg)
				}
				return configure(b.formRequest(factory(client, url).URLEncodedForm()), o, cfg)
			})
		},
	}

	f := cmd.Flags()
	f.VarP(partFlag{parts: &b.parts}, "form", "d", "form parameter (repeatable)")
	f.StringVar(&b.json, "json", "", "send this JSON document as the body")
	f.StringVar(&b.xml, "xml", "", "send this XML document as the body")
	f.StringVar(&b.text, "text", "", "send this text as the body")
	f.StringVar(&b.contentType, "content-type", "", "content type of the body")
	f.VarP(partFlag{parts: &b.parts, file: true}, "file", "F", "file part (repeatable, implies --multipart)")
	f.BoolVar(&b.multipart, "multipart", false, "send a multipart/form-data body")

	return cmd
}

func (b *bodyFlags) formRequest(r *httpclient.URLEncodedFormRequest) *httpclient.URLEncodedFormRequest {
	for _, p := range b.parts {
		r.AddParameter(p.name, p.value)
	}

	switch {
	case b.json != "":
		r.AddJSONParameter(b.json)
	case b.xml != "":
		r.AddXMLParameter(b.xml)
	case b.text != "":
		r.SetContentType(httpclient.ContentTypeTextPlain).AddText(b.text)
	}
	if b.contentType != "" {
		r.SetContentType(b.contentType)
	}

	return r
}

// multipartRequest adds text and file parts in command-line order.
func (b *bodyFlags) multipartRequest(r *httpclient.MultipartFormRequest) *httpclient.MultipartFormRequest {
	for _, p := range b.parts {
		if p.file {
			r.AddFile(p.name, p.value)
			continue
		}
		r.AddParameter(p.name, p.value)
	}
	return r
}
