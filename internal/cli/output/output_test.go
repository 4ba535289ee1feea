package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "table", want: FormatTable},
		{input: "", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: "yml", want: FormatYAML},
		{input: "  yaml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type row struct {
	ID   string `json:"id" yaml:"id"`
	Addr string `json:"addr" yaml:"addr"`
}

type rows []row

func (r rows) Headers() []string { return []string{"ID", "ADDR"} }
func (r rows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, x := range r {
		out = append(out, []string{x.ID, x.Addr})
	}
	return out
}

func TestPrinter_Formats(t *testing.T) {
	data := rows{{ID: "a1", Addr: "127.0.0.1:5000"}, {ID: "b2", Addr: "127.0.0.1:5001"}}

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(data))
		out := buf.String()
		assert.Contains(t, out, "ID")
		assert.Contains(t, out, "ADDR")
		assert.Contains(t, out, "127.0.0.1:5001")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(data))
		assert.JSONEq(t, `[{"id":"a1","addr":"127.0.0.1:5000"},{"id":"b2","addr":"127.0.0.1:5001"}]`, buf.String())
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(data))
		assert.Contains(t, buf.String(), "- id: a1")
	})

	t.Run("TableFallsBackToJSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(map[string]int{"n": 1}))
		assert.JSONEq(t, `{"n":1}`, buf.String())
	})
}

func TestTableAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("NAME", "VALUE")
	tbl.AddRow("sessions", "3")
	require.NoError(t, PrintTable(&buf, tbl))
	assert.Contains(t, buf.String(), "sessions")

	buf.Reset()
	require.NoError(t, PrintKeyValues(&buf, [][2]string{{"Name", "sessiond"}}))
	assert.Contains(t, buf.String(), "sessiond")
}

func TestPrinterMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)
	p.Success("done")
	p.Warning("careful")
	assert.Equal(t, "done\ncareful\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())
}
