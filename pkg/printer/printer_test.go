package printer

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestParseOutputType(t *testing.T) {
	for in, want := range map[string]OutputType{
		"":      OutputTypeTable,
		"table": OutputTypeTable,
		"json":  OutputTypeJSON,
		"yaml":  OutputTypeYAML,
	} {
		got, err := ParseOutputType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputType("wide")
	assert.Error(t, err)
}

func TestPrintDispatchesOnOutputType(t *testing.T) {
	data := sample{Name: "weather", Count: 2}
	table := func(w io.Writer) error {
		_, err := io.WriteString(w, "TABLE\n")
		return err
	}

	var buf bytes.Buffer
	p := New(OutputTypeJSON)
	p.SetOutput(&buf)
	require.NoError(t, p.Print(data, table))
	assert.JSONEq(t, `{"name":"weather","count":2}`, buf.String())
	assert.True(t, p.Structured())

	buf.Reset()
	p = New(OutputTypeYAML)
	p.SetOutput(&buf)
	require.NoError(t, p.Print(data, table))
	assert.Equal(t, "name: weather\ncount: 2\n", buf.String())

	buf.Reset()
	p = New(OutputTypeTable)
	p.SetOutput(&buf)
	require.NoError(t, p.Print(data, table))
	assert.Equal(t, "TABLE\n", buf.String())
	assert.False(t, p.Structured())
}

func TestPrintPropagatesTableError(t *testing.T) {
	p := New(OutputTypeTable)
	p.SetOutput(io.Discard)
	err := p.Print(nil, func(io.Writer) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
}

func TestTablePrinter(t *testing.T) {
	var buf bytes.Buffer
	tp := NewTablePrinter(&buf)
	tp.SetHeaders("Name", "Status")
	tp.AddRow("weather", FormatStatus(true))
	tp.AddRow("calendar", FormatStatus(false))
	require.NoError(t, tp.Render())

	assert.Equal(t,
		"NAME       STATUS\n"+
			"weather    Installed\n"+
			"calendar   Not installed\n",
		buf.String())
}

func TestTablePrinterNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	tp := NewTablePrinter(&buf, WithNoHeaders())
	tp.SetHeaders("Name")
	tp.AddRow("weather")
	require.NoError(t, tp.Render())
	assert.Equal(t, "weather\n", buf.String())
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "天気予...", TruncateString("天気予報サービス", 6))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
}

func TestEmptyValueOrDefault(t *testing.T) {
	assert.Equal(t, "-", EmptyValueOrDefault("", "-"))
	assert.Equal(t, "x", EmptyValueOrDefault("x", "-"))
}
