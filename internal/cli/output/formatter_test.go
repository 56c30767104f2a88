package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type rows []row

func (r rows) Table() *Table {
	t := NewTable("NAME", "DESCRIPTION")
	for _, e := range r {
		t.AddRow(e.Name, e.Description)
	}
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
		{"JSON", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML))
	assert.IsType(t, &TableFormatter{}, NewFormatter(FormatTable))
	assert.IsType(t, &TableFormatter{}, NewFormatter("unknown"))
}

func TestJSONFormatter_Format(t *testing.T) {
	data := rows{{Name: "report", Description: "q1 notes"}}

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, data))
	assert.Contains(t, buf.String(), "\n  {\n")
	assert.Contains(t, buf.String(), `"name": "report"`)

	buf.Reset()
	require.NoError(t, (&JSONFormatter{Compact: true}).Format(&buf, data))
	assert.Equal(t, `[{"name":"report","description":"q1 notes"}]`+"\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := (&YAMLFormatter{}).Format(&buf, rows{{Name: "report", Description: "q1 notes"}})
	require.NoError(t, err)
	assert.Equal(t, "- name: report\n  description: q1 notes\n", buf.String())
}

func TestTableFormatter_Tabler(t *testing.T) {
	var buf bytes.Buffer
	data := rows{{Name: "report", Description: "q1 notes"}, {Name: "a", Description: ""}}
	require.NoError(t, (&TableFormatter{}).Format(&buf, data))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME    DESCRIPTION", lines[0])
	assert.Equal(t, "report  q1 notes", lines[1])
	assert.Equal(t, "a       -", lines[2])
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("A", "B")
	tbl.AddRow("1", "2")
	require.NoError(t, (&TableFormatter{NoHeaders: true}).Format(&buf, tbl))
	assert.Equal(t, "1  2\n", buf.String())
}

func TestTableFormatter_Fallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, map[string]int{"count": 2}))
	assert.Contains(t, buf.String(), `"count": 2`)

	buf.Reset()
	require.NoError(t, (&TableFormatter{}).Format(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestTable_EmptyRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable("NAME").Render(&buf))
	assert.Equal(t, "NAME\n", buf.String())
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, true)

	p.Success("REGISTER OK")
	p.Failure("USERNAME IN USE")
	assert.Equal(t, "REGISTER OK\nUSERNAME IN USE\n", buf.String())
	assert.Same(t, &buf, p.Writer())

	buf.Reset()
	require.NoError(t, p.Result(rows{{Name: "f", Description: "d"}}))
	assert.Contains(t, buf.String(), "NAME")
}
