package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []Row
	}{
		{
			name: "Headers are trimmed and values zipped",
			text: " date , time ,for\n2024-05-01, 19:00 ,4\n",
			expected: []Row{
				{"date": "2024-05-01", "time": "19:00", "for": "4"},
			},
		},
		{
			name: "Leading byte order mark is dropped",
			text: "\ufeffrestaurant_name,date\nrestaurante-turqueta,2024-05-10\n",
			expected: []Row{
				{"restaurant_name": "restaurante-turqueta", "date": "2024-05-10"},
			},
		},
		{
			name: "Short rows are filled with empty strings",
			text: "a,b,c\n1\n",
			expected: []Row{
				{"a": "1", "b": "", "c": ""},
			},
		},
		{
			name: "Excess fields are dropped",
			text: "a,b\n1,2,3,4\n",
			expected: []Row{
				{"a": "1", "b": "2"},
			},
		},
		{
			name: "Blank and whitespace-only lines are skipped",
			text: "a,b\n\n1,2\n   \n3,4\n",
			expected: []Row{
				{"a": "1", "b": "2"},
				{"a": "3", "b": "4"},
			},
		},
		{
			name: "Duplicate headers keep the last value",
			text: "a,a\n1,2\n",
			expected: []Row{
				{"a": "2"},
			},
		},
		{
			name: "CRLF line endings",
			text: "a,b\r\n1,2\r\n",
			expected: []Row{
				{"a": "1", "b": "2"},
			},
		},
		{
			name: "Quoted field keeps embedded delimiters",
			text: "restaurant_name,tables\nv,\"[{'id_table': '5', 'max': '4'}, {'id_table': '6', 'max': '2'}]\"\n",
			expected: []Row{
				{"restaurant_name": "v", "tables": "[{'id_table': '5', 'max': '4'}, {'id_table': '6', 'max': '2'}]"},
			},
		},
		{
			name:     "Header only yields no rows",
			text:     "a,b\n",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := Records(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, rows)
		})
	}
}

func TestRecords_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "  \n\n"} {
		_, err := Records(text)
		assert.ErrorIs(t, err, ErrMalformedInput)
	}
}

func TestRecordsWithOptions_Delimiter(t *testing.T) {
	rows, err := RecordsWithOptions("a;b\n1;2,5\n", Options{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []Row{{"a": "1", "b": "2,5"}}, rows)
}

func TestRow_Get(t *testing.T) {
	row := Row{"time": " 19:00 "}
	assert.Equal(t, "19:00", row.Get("time"))
	assert.Equal(t, "", row.Get("missing"))
}
