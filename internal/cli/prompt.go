package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// NonBlockingReader provides context-aware input reading that can be interrupted.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads a trimmed line, returning ErrInputCancelled if ctx ends
// first. The underlying read keeps running until input arrives.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		// A final line without a newline is still an answer.
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Prompter asks for profile values one at a time. An empty answer keeps the
// current value.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter reading answers from r.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{reader: NewNonBlockingReader(r), writer: w}
}

func (p *Prompter) ask(ctx context.Context, label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt += " " + SubtleStyle.Render("["+current+"]")
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", err
	}
	answer, err := p.reader.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

// AskChoice prompts until parse accepts the answer.
func AskChoice[T any](ctx context.Context, p *Prompter, label, current string, parse func(string) (T, error)) (T, error) {
	for {
		answer, err := p.ask(ctx, label, current)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(answer)
		if err == nil {
			return v, nil
		}
		_, _ = fmt.Fprintln(p.writer, FormatError(err.Error()))
	}
}

// AskDecimal prompts for a non-negative amount. "$" and "," are ignored.
func (p *Prompter) AskDecimal(ctx context.Context, label string, current decimal.Decimal) (decimal.Decimal, error) {
	return AskChoice(ctx, p, label, current.String(), ParseAmount)
}

// AskInt prompts for a non-negative whole number.
func (p *Prompter) AskInt(ctx context.Context, label string, current int) (int, error) {
	return AskChoice(ctx, p, label, strconv.Itoa(current), func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%q is not a whole number", s)
		}
		return n, nil
	})
}

// ParseAmount parses a user-typed amount such as "$85,000" or "6%".
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q cannot be negative", s)
	}
	return d, nil
}
