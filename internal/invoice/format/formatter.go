// Package format renders human-readable invoice numbers.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultNumberTemplate = "INV-{YYYY}{MM}{DD}-{SEQ6}"

var (
	ErrEmptyTemplate    = errors.New("invoice_number_template_empty")
	ErrInvalidSequence  = errors.New("invoice_number_invalid_sequence")
	ErrUnresolvedTokens = errors.New("invoice_number_unresolved_token")
)

var seqToken = regexp.MustCompile(`\{SEQ(\d*)\}`)

// Number expands {YYYY}, {YY}, {MM}, {DD}, {SEQ} and zero-padded {SEQn}
// tokens. Dates are taken from issuedAt as given; pass it in the business
// timezone.
func Number(template string, issuedAt time.Time, seq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrEmptyTemplate
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	out := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
	).Replace(template)

	out = seqToken.ReplaceAllStringFunc(out, func(token string) string {
		width, _ := strconv.Atoi(seqToken.FindStringSubmatch(token)[1])
		if width <= 0 {
			return strconv.FormatInt(seq, 10)
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedTokens, out)
	}
	return out, nil
}
