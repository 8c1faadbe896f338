package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/fencrypt/internal/batch"
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/fatih/color"
)

var (
	infoMark    = color.New(color.FgBlack, color.BgWhite)
	successMark = color.New(color.FgBlack, color.BgHiGreen)
	errorMark   = color.New(color.FgBlack, color.BgHiRed)
)

// detailIndent prefixes detail lines under a status line.
const detailIndent = "    "

// WithStartLine prefixes every line of text with lineStart and a space.
func WithStartLine(text, lineStart string) string {
	return lineStart + " " + strings.ReplaceAll(text, "\n", "\n"+lineStart+" ")
}

// Reporter writes user-facing status lines. Each line starts with a colored
// marker: white for information, green for success and red for errors.
// Details are printed only in debug mode.
type Reporter struct {
	w     io.Writer
	debug bool
}

func NewReporter(w io.Writer, debug bool) *Reporter {
	return &Reporter{w: w, debug: debug}
}

func (r *Reporter) print(mark *color.Color, format string, args ...any) {
	fmt.Fprintln(r.w, WithStartLine(fmt.Sprintf(format, args...), mark.Sprint(" ")))
}

func (r *Reporter) Info(format string, args ...any) {
	r.print(infoMark, format, args...)
}

func (r *Reporter) Success(format string, args ...any) {
	r.print(successMark, format, args...)
}

func (r *Reporter) Error(format string, args ...any) {
	r.print(errorMark, format, args...)
}

// Prompt writes an information line without a trailing newline.
func (r *Reporter) Prompt(text string) {
	fmt.Fprint(r.w, WithStartLine(text, infoMark.Sprint(" ")))
}

// Failure reports err by its short message, and its cause chain in debug
// mode.
func (r *Reporter) Failure(err error) {
	r.Error("%s", common.Summary(err))
	if r.debug {
		r.Error("%s", WithStartLine(common.Detail(err), detailIndent))
	}
}

// Batch summarizes a batch run. verb is the past tense shown for
// successes ("Encrypted"), op the infinitive used for failures ("encrypt").
// Failed paths are always listed; the other lists only in debug mode.
func (r *Reporter) Batch(verb, op string, res *batch.Result) {
	success, skipped, failed := res.Counts()

	if success > 0 {
		r.Success("%s %s in %s", verb, plural(success, "entry", "entries"), res.Elapsed.Round(time.Millisecond))
		if r.debug {
			for _, it := range res.Filter(batch.StatusSuccess) {
				r.Success("%s", WithStartLine(it.Path+" -> "+it.Output, detailIndent))
			}
		}
	}
	if failed > 0 {
		r.Error("Failed to %s %s", op, plural(failed, "entry", "entries"))
		for _, it := range res.Filter(batch.StatusFailed) {
			r.Error("%s", WithStartLine(it.Path+": "+common.Summary(it.Err), detailIndent))
			if r.debug {
				r.Error("%s", WithStartLine(common.Detail(it.Err), detailIndent+detailIndent))
			}
		}
	}
	if skipped > 0 {
		r.Info("%s skipped (%s)", plural(skipped, "entry was", "entries were"), batch.ReasonUnknownType)
		if r.debug {
			for _, it := range res.Filter(batch.StatusSkipped) {
				r.Info("%s", WithStartLine(it.Path, detailIndent))
			}
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
