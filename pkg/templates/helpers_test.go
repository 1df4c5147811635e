package templates

import (
	"bytes"
	"math"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0, expected: "$0.00"},
		{name: "small", input: 12.5, expected: "$12.50"},
		{name: "thousands", input: 1234.5, expected: "$1,234.50"},
		{name: "millions", input: 2500000, expected: "$2,500,000.00"},
		{name: "negative", input: -12, expected: "-$12.00"},
		{name: "nan", input: math.NaN(), expected: "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Money(tt.input))
		})
	}
}

func TestPercentFormats(t *testing.T) {
	assert.Equal(t, "12.3%", Percent(12.34))
	assert.Equal(t, "100.0%", Percent(100))
	assert.Equal(t, "0.0%", Percent(math.Inf(1)))
	assert.Equal(t, "87.3%", Ratio(0.8734))
	assert.Equal(t, "5.8%", Rate(0.058))
}

func TestHumanList(t *testing.T) {
	assert.Equal(t, "", HumanList(nil))
	assert.Equal(t, "age", HumanList([]string{"age"}))
	assert.Equal(t, "age and income", HumanList([]string{"age", "income"}))
	assert.Equal(t, "a, b and c", HumanList([]string{"a", "b", "c"}))
}

func TestSmallHelpers(t *testing.T) {
	assert.Equal(t, "target retirement income", HumanField("target_retirement_income"))
	assert.Equal(t, "1 debt", "1 "+Plural(1, "debt", "debts"))
	assert.Equal(t, "3 debts", "3 "+Plural(3, "debt", "debts"))
	assert.Equal(t, "62nd", Ordinal(62))
}

func TestFuncMapInTemplate(t *testing.T) {
	tmpl, err := template.New("t").Funcs(FuncMap()).Parse(
		`{{money .Balance}} | {{fields .Fields}} | {{add .N 1}} | {{years .Months}}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Balance": 1500.0,
		"Fields":  []string{"current_age", "monthly_income"},
		"N":       2,
		"Months":  30,
	})
	require.NoError(t, err)
	assert.Equal(t, "$1,500.00 | current age and monthly income | 3 | 2.5", buf.String())
}
