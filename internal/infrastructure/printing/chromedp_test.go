package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.allocCtx)
}

func TestBuildPrintParams_A4Portrait(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	params := r.buildPrintParams(&RenderRequest{
		HTML:      "<html>test</html>",
		PaperSize: PaperSizeA4,
		Margins:   DefaultMargins(),
	})

	// A4 is 210mm x 297mm
	assert.InDelta(t, mmToInches(210), params.paperWidth, 0.01)
	assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(12), params.marginLeft, 0.001)
	assert.False(t, params.landscape)
	assert.False(t, params.displayFooter)
	assert.Equal(t, 1.0, params.scale)
}

func TestBuildPrintParams_LetterLandscape(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 0.9}}

	params := r.buildPrintParams(&RenderRequest{
		HTML:      "<p>x</p>",
		PaperSize: PaperSizeLetter,
		Landscape: true,
	})

	assert.InDelta(t, 8.5, params.paperWidth, 0.01)
	assert.InDelta(t, 11, params.paperHeight, 0.01)
	assert.True(t, params.landscape)
	assert.Equal(t, 0.9, params.scale)
}

func TestBuildPrintParams_FooterRaisesBottomMargin(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	params := r.buildPrintParams(&RenderRequest{
		HTML:       "<p>x</p>",
		PaperSize:  PaperSizeA4,
		Margins:    Margins{Top: 5, Right: 5, Bottom: 5, Left: 5},
		FooterHTML: footerTemplate,
	})

	assert.True(t, params.displayFooter)
	assert.Equal(t, footerTemplate, params.footerTemplate)
	assert.InDelta(t, mmToInches(minFooterMarginMM), params.marginBottom, 0.001)
	assert.InDelta(t, mmToInches(5), params.marginTop, 0.001)
}

func TestBuildCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>done</body></html>"
	assert.Equal(t, full, buildCompleteHTML(&RenderRequest{HTML: full}))

	withHTMLTag := "<HTML><body>x</body></HTML>"
	assert.Equal(t, withHTMLTag, buildCompleteHTML(&RenderRequest{HTML: withHTMLTag}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>Hi</p>", Title: "A & B"})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>Hi</p></body>")
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name string
		req  *RenderRequest
		code string
	}{
		{"nil request", nil, ErrCodeInvalidHTML},
		{"blank html", &RenderRequest{HTML: "  ", PaperSize: PaperSizeA4}, ErrCodeInvalidHTML},
		{"bad paper", &RenderRequest{HTML: "<p/>", PaperSize: "A0"}, ErrCodeInvalidPaperSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			var renderErr *RenderError
			require.True(t, errors.As(err, &renderErr))
			assert.Equal(t, tt.code, renderErr.Code)
		})
	}

	assert.NoError(t, validateRequest(&RenderRequest{HTML: "<p/>", PaperSize: PaperSizeLetter}))
}

func TestChromedpRenderer_RenderRejectsInvalidRequest(t *testing.T) {
	r := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	defer r.Close()

	_, err := r.Render(context.Background(), &RenderRequest{HTML: ""})
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestRenderError(t *testing.T) {
	cause := errors.New("target closed")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: target closed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "empty", NewRenderError(ErrCodeRenderFailed, "empty", nil).Error())
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [3 0 R 4 0 R] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4")))
}

func TestChromedpRenderer_Close(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	assert.NoError(t, r.Close())
}
