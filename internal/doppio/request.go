package doppio

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PageFormat is a paper size understood by the rendering service.
type PageFormat string

const (
	FormatA3      PageFormat = "A3"
	FormatA4      PageFormat = "A4"
	FormatA5      PageFormat = "A5"
	FormatA6      PageFormat = "A6"
	FormatLetter  PageFormat = "Letter"
	FormatLegal   PageFormat = "Legal"
	FormatTabloid PageFormat = "Tabloid"
	FormatLedger  PageFormat = "Ledger"
)

var pageFormats = []PageFormat{
	FormatA3, FormatA4, FormatA5, FormatA6,
	FormatLetter, FormatLegal, FormatTabloid, FormatLedger,
}

// ParsePageFormat matches s case-insensitively against the known formats.
func ParsePageFormat(s string) (PageFormat, error) {
	for _, f := range pageFormats {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown page format %q", ErrInvalidRequest, s)
}

// WaitCondition tells the service when the page is ready to print.
type WaitCondition string

const (
	WaitLoad              WaitCondition = "load"
	WaitDOMContentLoaded  WaitCondition = "domcontentloaded"
	WaitNetworkIdle       WaitCondition = "networkidle0"
	WaitNetworkAlmostIdle WaitCondition = "networkidle2"
)

// ParseWaitCondition accepts the service values plus the "networkidle" alias.
// An empty string means the service default.
func ParseWaitCondition(s string) (WaitCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "load":
		return WaitLoad, nil
	case "domcontentloaded":
		return WaitDOMContentLoaded, nil
	case "networkidle", "networkidle0":
		return WaitNetworkIdle, nil
	case "networkidle2":
		return WaitNetworkAlmostIdle, nil
	}
	return "", fmt.Errorf("%w: unknown wait condition %q", ErrInvalidRequest, s)
}

// RenderRequest is one HTML document to print.
type RenderRequest struct {
	HTML            string
	Format          PageFormat
	PrintBackground bool
	WaitUntil       WaitCondition
}

// Validate checks the request before anything is sent.
func (r RenderRequest) Validate() error {
	if strings.TrimSpace(r.HTML) == "" {
		return fmt.Errorf("%w: html is empty", ErrInvalidRequest)
	}
	if _, err := ParsePageFormat(string(r.Format)); err != nil {
		return err
	}
	if _, err := ParseWaitCondition(string(r.WaitUntil)); err != nil {
		return err
	}
	return nil
}

type envelope struct {
	Page pagePayload `json:"page"`
}

type pagePayload struct {
	PDF        pdfOptions `json:"pdf"`
	SetContent setContent `json:"setContent"`
}

type pdfOptions struct {
	PrintBackground bool   `json:"printBackground"`
	Format          string `json:"format"`
}

type setContent struct {
	HTML    string             `json:"html"`
	Options *setContentOptions `json:"options,omitempty"`
}

type setContentOptions struct {
	WaitUntil []string `json:"waitUntil"`
}

// body builds the JSON envelope with the HTML base64 encoded.
func (r RenderRequest) body() envelope {
	env := envelope{Page: pagePayload{
		PDF: pdfOptions{
			PrintBackground: r.PrintBackground,
			Format:          string(r.Format),
		},
		SetContent: setContent{
			HTML: base64.StdEncoding.EncodeToString([]byte(r.HTML)),
		},
	}}
	if r.WaitUntil != "" {
		env.Page.SetContent.Options = &setContentOptions{WaitUntil: []string{string(r.WaitUntil)}}
	}
	return env
}
