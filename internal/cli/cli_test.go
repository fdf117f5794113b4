package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNonBlockingReader_ReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "successful read", input: "test input\n", want: "test input"},
		{name: "extra whitespace", input: "  test input  \n", want: "test input"},
		{name: "empty line", input: "\n", want: ""},
		{name: "no trailing newline", input: "last", want: "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nbr := NewNonBlockingReader(strings.NewReader(tt.input))
			got, err := nbr.ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNonBlockingReader_EOF(t *testing.T) {
	nbr := NewNonBlockingReader(strings.NewReader(""))
	_, err := nbr.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestNonBlockingReader_Cancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	defer func() { _ = pw.Close() }()

	nbr := NewNonBlockingReader(pr)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := nbr.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestPrompter(t *testing.T) {
	input := "\n$95,000\nnope\n52\nmfj\nCO\n"
	out := &syncBuffer{}
	p := NewPrompter(strings.NewReader(input), out)
	ctx := context.Background()

	income, err := p.AskDecimal(ctx, "Annual income", decimal.NewFromInt(80000))
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(80000)), "empty answer keeps current")

	income, err = p.AskDecimal(ctx, "Annual income", income)
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(95000)))

	age, err := p.AskInt(ctx, "Age", 0)
	require.NoError(t, err)
	assert.Equal(t, 52, age)
	assert.Contains(t, out.String(), `"nope" is not a whole number`)

	status, err := AskChoice(ctx, p, "Filing status", "single", model.ParseFilingStatus)
	require.NoError(t, err)
	assert.Equal(t, model.FilingMarriedJoint, status)

	state, err := AskChoice(ctx, p, "State", "", func(s string) (string, error) { return strings.ToUpper(s), nil })
	require.NoError(t, err)
	assert.Equal(t, "CO", state)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "$85,000", want: "85000"},
		{in: "6%", want: "6"},
		{in: "1234.56", want: "1234.56"},
		{in: "-5", wantErr: true},
		{in: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)))
		})
	}
}

func TestInterruptHandler(t *testing.T) {
	out := &syncBuffer{}
	h := NewInterruptHandler(out)

	ctx, stop := h.HandleInterrupts(context.Background(), "Imported snapshots were kept.")
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	h.interrupt()
	h.interrupt()

	assert.True(t, h.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Interrupted!"))
	assert.Contains(t, out.String(), "Imported snapshots were kept.")

	stop()
	<-ctx.Done()
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}

func TestNewInterruptHandler_NilWriter(t *testing.T) {
	h := NewInterruptHandler(nil)
	assert.NotNil(t, h.writer)
	assert.False(t, h.WasInterrupted())
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Rate", "Up to"}, [][]string{
		{"10%", "$11,925.00"},
		{"37%", "no limit"},
	})

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "$11,925.00")
	assert.Contains(t, out, "no limit")
	assert.Contains(t, out, "Rate")
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatError("failed"), "failed")
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, FormatTitle("Taxes"), "Taxes")
	assert.Contains(t, KeyValue("Total Tax", "$1.00"), "$1.00")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}
