package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	categories, err := Defaults()
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	var income, expense int
	for _, c := range categories {
		if c.Income {
			income++
		} else {
			expense++
		}
	}
	assert.Positive(t, income)
	assert.Positive(t, expense)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr string
	}{
		{
			name: "two levels",
			yaml: "categories:\n  - name: Food\n    children:\n      - name: Groceries\n",
			want: 1,
		},
		{
			name:    "missing name",
			yaml:    "categories:\n  - color: red\n",
			wantErr: "without a name",
		},
		{
			name:    "duplicate sibling",
			yaml:    "categories:\n  - name: Food\n  - name: food\n",
			wantErr: "duplicate",
		},
		{
			name:    "too deep",
			yaml:    "categories:\n  - name: A\n    children:\n      - name: B\n        children:\n          - name: C\n",
			wantErr: "nested too deeply",
		},
		{
			name:    "not yaml",
			yaml:    "categories: [",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
